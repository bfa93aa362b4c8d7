package services

import (
	"database/sql"
	"errors"

	"loudim/internal/domain"
	"loudim/internal/repos"
)

type DeliveryService struct {
	Cities *repos.DeliveryRepo
}

func NewDeliveryService(cities *repos.DeliveryRepo) *DeliveryService {
	return &DeliveryService{Cities: cities}
}

// FeeFor prices a region+method. An unpriced region ships free rather than
// erroring; regions are added by the back office over time.
func (s *DeliveryService) FeeFor(wilayaCode int, deliveryType string) (float64, error) {
	c, err := s.Cities.CityByCode(wilayaCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	if deliveryType == domain.DeliveryHome {
		return c.HomeFee, nil
	}
	return c.DeskFee, nil
}

// Options bundles what the checkout page needs for one region.
type Options struct {
	City  domain.DeliveryCity
	Desks []domain.DeliveryDesk
}

func (s *DeliveryService) OptionsFor(wilayaCode int) (Options, error) {
	c, err := s.Cities.CityByCode(wilayaCode)
	if err != nil {
		return Options{}, err
	}
	desks, err := s.Cities.ActiveDesksByWilaya(c.ID)
	if err != nil {
		return Options{}, err
	}
	return Options{City: c, Desks: desks}, nil
}

// ValidatePickupDesk confirms the desk exists, is active and belongs to the
// given region, so a bad desk id is rejected before checkout writes anything.
func (s *DeliveryService) ValidatePickupDesk(wilayaCode int, deskID int64) error {
	d, err := s.Cities.GetDesk(deskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ValidationError{Msg: "Invalid pickup desk"}
		}
		return err
	}
	c, err := s.Cities.CityByCode(wilayaCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ValidationError{Msg: "Invalid pickup desk"}
		}
		return err
	}
	if !d.Active || d.WilayaID != c.ID {
		return &ValidationError{Msg: "Invalid pickup desk"}
	}
	return nil
}

func (s *DeliveryService) ListDesks(wilayaCode int) ([]domain.DeliveryDesk, error) {
	c, err := s.Cities.CityByCode(wilayaCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s.Cities.ActiveDesksByWilaya(c.ID)
}
