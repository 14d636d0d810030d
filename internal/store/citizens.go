package store

import (
	"fmt"
	"time"

	"github.com/panvault-dev/panvault/internal/model"
	"github.com/panvault-dev/panvault/internal/pan"
)

// CitizenParams holds the fields for creating a citizen record.
type CitizenParams struct {
	PAN     string
	Name    string
	DOB     time.Time
	Phone   string
	Address model.Address
}

// CreateCitizen adds a new citizen keyed by its PAN.
func (s *Store) CreateCitizen(params CitizenParams) (model.Citizen, error) {
	const op = "store.create_citizen"

	p := pan.Normalize(params.PAN)
	if !pan.Valid(p) {
		return model.Citizen{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: params.PAN, Field: "pan",
			Err: fmt.Errorf("PAN must be 5 letters, 4 digits, 1 letter"),
		}
	}
	if params.Name == "" {
		return model.Citizen{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: p, Field: "name",
			Err: fmt.Errorf("name must not be empty"),
		}
	}
	if params.DOB.IsZero() {
		return model.Citizen{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: p, Field: "dob",
			Err: fmt.Errorf("date of birth is required"),
		}
	}
	if params.Address.Country == "" {
		return model.Citizen{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: p, Field: "address.country",
			Err: fmt.Errorf("country is required"),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.citizens[p]; exists {
		return model.Citizen{}, &model.Fault{Op: op, Kind: model.KindDuplicateKey, Key: p, Field: "pan"}
	}

	b := s.capture()
	c := model.Citizen{
		PAN:          p,
		Name:         params.Name,
		DOB:          params.DOB,
		Phone:        params.Phone,
		Address:      params.Address,
		Version:      1,
		LastModified: s.now().UTC(),
	}
	s.citizens[p] = c

	if err := s.commit(op, b); err != nil {
		return model.Citizen{}, err
	}
	return c, nil
}

// CitizenUpdate carries the mutable citizen fields; nil means unchanged.
// The PAN itself is immutable and cannot appear here.
type CitizenUpdate struct {
	Name    *string
	Phone   *string
	Address *model.Address
}

// UpdateCitizen applies upd to the citizen keyed by p.
func (s *Store) UpdateCitizen(p string, upd CitizenUpdate) (model.Citizen, error) {
	const op = "store.update_citizen"

	p = pan.Normalize(p)
	if upd.Name != nil && *upd.Name == "" {
		return model.Citizen{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: p, Field: "name",
			Err: fmt.Errorf("name must not be empty"),
		}
	}
	if upd.Address != nil && upd.Address.Country == "" {
		return model.Citizen{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: p, Field: "address.country",
			Err: fmt.Errorf("country is required"),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.citizens[p]
	if !ok {
		return model.Citizen{}, &model.Fault{Op: op, Kind: model.KindNotFound, Key: p}
	}

	b := s.capture()
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Address != nil {
		c.Address = *upd.Address
	}
	c.Version++
	c.LastModified = s.now().UTC()
	s.citizens[p] = c

	if err := s.commit(op, b); err != nil {
		return model.Citizen{}, err
	}
	return c, nil
}

// DeleteCitizen removes the citizen keyed by p. A citizen still owning
// accounts cannot be deleted.
func (s *Store) DeleteCitizen(p string) error {
	const op = "store.delete_citizen"

	p = pan.Normalize(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.citizens[p]; !ok {
		return &model.Fault{Op: op, Kind: model.KindNotFound, Key: p}
	}
	if owned := s.byPAN[p]; len(owned) > 0 {
		return &model.Fault{
			Op: op, Kind: model.KindConflict, Key: p,
			Err: fmt.Errorf("citizen still owns %d account(s)", len(owned)),
		}
	}

	b := s.capture()
	delete(s.citizens, p)

	return s.commit(op, b)
}
