// Package metainfo reads .torrent files on top of the bencode decoder.
package metainfo

import (
	"crypto/sha1"
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
)

var logger = logrus.WithField("component", "metainfo")

// HashSize is the size of a SHA-1 piece hash and of the info hash.
const HashSize = sha1.Size

// File is one file described by a torrent.
type File struct {
	// Path is nil for single-file torrents.
	Path      []string
	Name      string
	Length    int64
	NumPieces int64
}

type MetaInfo struct {
	Announce     string
	AnnounceList [][]string
	Name         string
	Comment      string
	CreatedBy    string
	CreationDate int64
	PieceLength  int64
	Pieces       [][HashSize]byte
	// InfoHash is the SHA-1 of the raw bytes of the info dictionary.
	InfoHash [HashSize]byte
	Files    []File
}

// Load reads and parses a .torrent file. dec may be nil.
func Load(path string, dec *bencode.Decoder) (*MetaInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read torrent file %s", path)
	}

	m, err := Parse(data, dec)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse torrent file %s", path)
	}
	return m, nil
}

// Parse decodes data as torrent metadata. dec may be nil.
func Parse(data []byte, dec *bencode.Decoder) (*MetaInfo, error) {
	root, err := dec.Decode(data)
	if err != nil {
		return nil, err
	}
	if root.Kind() != bencode.Dictionary {
		return nil, errors.Errorf("torrent root is a %s, not a dictionary", root.Kind())
	}

	info, err := requireKind(root, "info", bencode.Dictionary)
	if err != nil {
		return nil, err
	}

	m := &MetaInfo{}
	if m.Announce, err = optionalText(root, "announce"); err != nil {
		return nil, err
	}
	if m.AnnounceList, err = announceList(root); err != nil {
		return nil, err
	}
	if m.Announce == "" && len(m.AnnounceList) == 0 {
		return nil, errors.New("torrent has neither announce nor announce-list")
	}
	if m.Comment, err = optionalText(root, "comment"); err != nil {
		return nil, err
	}
	if m.CreatedBy, err = optionalText(root, "created by"); err != nil {
		return nil, err
	}
	if m.CreationDate, err = optionalInt(root, "creation date"); err != nil {
		return nil, err
	}

	span := info.Span()
	m.InfoHash = sha1.Sum(data[span.Start:span.End])

	if err := m.populateInfo(info); err != nil {
		return nil, errors.Wrap(err, "invalid info dictionary")
	}

	logger.Debugf("parsed torrent %q: %d files, %d pieces, info hash %s",
		m.Name, len(m.Files), len(m.Pieces), hex.EncodeToString(m.InfoHash[:]))
	return m, nil
}

func (m *MetaInfo) populateInfo(info bencode.Token) error {
	var err error
	if m.Name, err = requireText(info, "name"); err != nil {
		return err
	}

	if m.PieceLength, err = requireInt(info, "piece length"); err != nil {
		return err
	}
	if m.PieceLength <= 0 {
		return errors.Errorf("piece length must be positive, got %d", m.PieceLength)
	}

	pieces, err := requireKind(info, "pieces", bencode.String)
	if err != nil {
		return err
	}
	raw, _ := pieces.Bytes()
	if len(raw)%HashSize != 0 {
		return errors.Errorf("pieces length %d is not a multiple of %d", len(raw), HashSize)
	}
	m.Pieces = make([][HashSize]byte, len(raw)/HashSize)
	for i := range m.Pieces {
		copy(m.Pieces[i][:], raw[i*HashSize:])
	}

	// single-file torrents carry info.length, multi-file ones info.files
	if length, ok := info.Lookup("length"); ok {
		size, err := length.Int()
		if err != nil {
			return errors.Wrap(err, "length")
		}
		if size < 0 {
			return errors.Errorf("length must not be negative, got %d", size)
		}
		m.Files = []File{m.newFile(nil, m.Name, size)}
		return nil
	}

	files, err := requireKind(info, "files", bencode.List)
	if err != nil {
		return err
	}
	entries, _ := files.List()
	for i, entry := range entries {
		f, err := m.multiFile(entry)
		if err != nil {
			return errors.Wrapf(err, "files[%d]", i)
		}
		m.Files = append(m.Files, f)
	}
	return nil
}

func (m *MetaInfo) multiFile(entry bencode.Token) (File, error) {
	if entry.Kind() != bencode.Dictionary {
		return File{}, errors.Errorf("file entry is a %s, not a dictionary", entry.Kind())
	}
	size, err := requireInt(entry, "length")
	if err != nil {
		return File{}, err
	}
	if size < 0 {
		return File{}, errors.Errorf("length must not be negative, got %d", size)
	}

	path, err := requireKind(entry, "path", bencode.List)
	if err != nil {
		return File{}, err
	}
	parts, _ := path.List()
	if len(parts) == 0 {
		return File{}, errors.New("path is empty")
	}

	hierarchy := make([]string, 0, len(parts))
	for _, part := range parts {
		s, err := part.Text()
		if err != nil {
			return File{}, errors.Wrap(err, "path")
		}
		hierarchy = append(hierarchy, s)
	}
	return m.newFile(hierarchy, hierarchy[len(hierarchy)-1], size), nil
}

func (m *MetaInfo) newFile(path []string, name string, size int64) File {
	return File{
		Path:      path,
		Name:      name,
		Length:    size,
		NumPieces: (size + m.PieceLength - 1) / m.PieceLength,
	}
}

func (m *MetaInfo) TotalLength() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Length
	}
	return total
}

func (m *MetaInfo) SingleFile() bool {
	return len(m.Files) == 1 && m.Files[0].Path == nil
}

// Trackers lists every tracker URL once, announce first, then announce-list
// tiers in order.
func (m *MetaInfo) Trackers() []string {
	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	add(m.Announce)
	for _, tier := range m.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return urls
}

func (m *MetaInfo) InfoHashHex() string {
	return hex.EncodeToString(m.InfoHash[:])
}

func announceList(root bencode.Token) ([][]string, error) {
	v, ok := root.Lookup("announce-list")
	if !ok {
		return nil, nil
	}
	tiers, err := v.List()
	if err != nil {
		return nil, errors.Wrap(err, "announce-list")
	}

	var out [][]string
	for _, tier := range tiers {
		urls, err := tier.List()
		if err != nil {
			return nil, errors.Wrap(err, "announce-list tier")
		}
		var t []string
		for _, u := range urls {
			s, err := u.Text()
			if err != nil {
				return nil, errors.Wrap(err, "announce-list url")
			}
			t = append(t, s)
		}
		if len(t) > 0 {
			out = append(out, t)
		}
	}
	return out, nil
}
