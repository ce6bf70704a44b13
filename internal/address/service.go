package address

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parcelflow/parcelflow/internal/reconcile"
	"github.com/parcelflow/parcelflow/internal/terminal"
)

// Input carries the caller-supplied address fields.
type Input struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Line1         string
	Line2         string
	City          string
	State         string
	Country       string
	Zip           string
	IsResidential *bool
	IsDefault     bool
}

// Service manages saved addresses and mirrors them to the carrier aggregator
// when it is reachable. The local record is authoritative; a failed mirror is
// tolerated and recorded for reconciliation.
type Service struct {
	repo      Repository
	carrier   terminal.API
	reconcile reconcile.Recorder
	logger    *slog.Logger
}

// NewService wires the address service.
func NewService(repo Repository, carrier terminal.API, rec reconcile.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, carrier: carrier, reconcile: rec, logger: logger}
}

// Create saves an address, attempting a carrier-side mirror first. Mirror
// failures leave ExternalID empty and never fail the save.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Address, error) {
	now := time.Now().UTC()
	a := Address{
		ID:            uuid.NewString(),
		UserID:        userID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Phone:         in.Phone,
		Line1:         in.Line1,
		Line2:         in.Line2,
		City:          in.City,
		State:         in.State,
		Country:       in.Country,
		Zip:           in.Zip,
		IsResidential: residential(in.IsResidential),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.carrier.CreateAddress(ctx, toWire(a))
	if err != nil {
		s.reconcile.Record(ctx, reconcile.Event{
			Kind:   reconcile.KindAddressMirrorFailed,
			UserID: userID,
			Detail: "create mirror failed for address " + a.ID + ": " + err.Error(),
		})
		s.logger.Warn("address mirror failed, keeping local record",
			"address_id", a.ID, "user_id", userID, "error", err)
	} else {
		a.ExternalID = created.AddressID
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Address{}, err
	}
	if in.IsDefault {
		if err := s.repo.SetDefault(ctx, a.ID, userID); err != nil {
			return Address{}, err
		}
		a.IsDefault = true
	}
	return a, nil
}

// Update edits an address and pushes the change to its carrier-side mirror
// when one exists. Mirror failures are tolerated.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (Address, error) {
	a, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return Address{}, err
	}

	a.FirstName = in.FirstName
	a.LastName = in.LastName
	a.Email = in.Email
	a.Phone = in.Phone
	a.Line1 = in.Line1
	a.Line2 = in.Line2
	a.City = in.City
	a.State = in.State
	a.Country = in.Country
	a.Zip = in.Zip
	a.IsResidential = residential(in.IsResidential)

	if a.ExternalID != "" {
		if err := s.carrier.UpdateAddress(ctx, a.ExternalID, toWire(a)); err != nil {
			s.reconcile.Record(ctx, reconcile.Event{
				Kind:   reconcile.KindAddressMirrorFailed,
				UserID: userID,
				Detail: "update mirror failed for address " + a.ID + ": " + err.Error(),
			})
			s.logger.Warn("address mirror update failed, keeping local change",
				"address_id", a.ID, "user_id", userID, "error", err)
		}
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return Address{}, err
	}
	return s.repo.FindByIDForUser(ctx, id, userID)
}

// Delete removes an address.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, id, userID)
}

// SetDefault makes the given address the user's single default.
func (s *Service) SetDefault(ctx context.Context, userID, id string) (Address, error) {
	if err := s.repo.SetDefault(ctx, id, userID); err != nil {
		return Address{}, err
	}
	return s.repo.FindByIDForUser(ctx, id, userID)
}

// Get returns a single address scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id string) (Address, error) {
	return s.repo.FindByIDForUser(ctx, id, userID)
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Countries proxies the aggregator's country list.
func (s *Service) Countries(ctx context.Context) (json.RawMessage, error) {
	return s.carrier.Countries(ctx)
}

// States proxies the aggregator's state list for a country.
func (s *Service) States(ctx context.Context, country string) (json.RawMessage, error) {
	return s.carrier.States(ctx, country)
}

// Cities proxies the aggregator's city list for a country and optional state.
func (s *Service) Cities(ctx context.Context, country, state string) (json.RawMessage, error) {
	return s.carrier.Cities(ctx, country, state)
}

func toWire(a Address) terminal.Address {
	return terminal.Address{
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		Phone:         a.Phone,
		IsResidential: a.IsResidential,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		State:         a.State,
		Country:       a.Country,
		Zip:           a.Zip,
	}
}

func residential(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}
