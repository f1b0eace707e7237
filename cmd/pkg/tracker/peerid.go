package tracker

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const PeerIDSize = 20

type PeerID [PeerIDSize]byte

func (id PeerID) String() string {
	return string(id[:])
}

// Version is the client version embedded in the peer id.
type Version struct {
	Major int
	Minor int
	Build int
}

// ParseVersion parses "major.minor.build".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, errors.Errorf("version %q is not major.minor.build", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, errors.Wrapf(err, "version %q", s)
		}
		nums[i] = n
	}

	v := Version{Major: nums[0], Minor: nums[1], Build: nums[2]}
	return v, v.Validate()
}

func (v Version) Validate() error {
	if v.Major < 0 || v.Major > 9 {
		return errors.Errorf("major version must be 0-9, got %d", v.Major)
	}
	if v.Minor < 0 || v.Minor > 99 {
		return errors.Errorf("minor version must be 0-99, got %d", v.Minor)
	}
	if v.Build < 0 || v.Build > 9 {
		return errors.Errorf("build version must be 0-9, got %d", v.Build)
	}
	return nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// GeneratePeerID returns an Azureus-style id (BEP 20) such as
// "-PL0001-" followed by random lower-case letters.
func GeneratePeerID(v Version) (PeerID, error) {
	var id PeerID
	if err := v.Validate(); err != nil {
		return id, err
	}

	prefix := fmt.Sprintf("-PL%d%02d%d-", v.Major, v.Minor, v.Build)
	n := copy(id[:], prefix)

	random := make([]byte, PeerIDSize-n)
	if _, err := rand.Read(random); err != nil {
		return id, errors.Wrap(err, "failed to generate peer id")
	}
	for i, b := range random {
		id[n+i] = 'a' + b%26
	}
	return id, nil
}
