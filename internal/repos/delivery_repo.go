package repos

import (
	"loudim/internal/domain"

	"github.com/jmoiron/sqlx"
)

type DeliveryRepo struct{ db *sqlx.DB }

func NewDeliveryRepo(db *sqlx.DB) *DeliveryRepo { return &DeliveryRepo{db: db} }

func (r *DeliveryRepo) CityByCode(wilayaCode int) (domain.DeliveryCity, error) {
	var c domain.DeliveryCity
	err := r.db.Get(&c, `
	  SELECT id, wilaya_code, name_en, name_fr, name_ar, home_fee, desk_fee
	  FROM delivery_cities WHERE wilaya_code = ?`, wilayaCode)
	return c, err
}

func (r *DeliveryRepo) ListCities() ([]domain.DeliveryCity, error) {
	var out []domain.DeliveryCity
	err := r.db.Select(&out, `
	  SELECT id, wilaya_code, name_en, name_fr, name_ar, home_fee, desk_fee
	  FROM delivery_cities ORDER BY wilaya_code`)
	return out, err
}

func (r *DeliveryRepo) UpdateCityFees(wilayaCode int, homeFee, deskFee float64) error {
	_, err := r.db.Exec(`
	  UPDATE delivery_cities SET home_fee=?, desk_fee=? WHERE wilaya_code=?
	`, homeFee, deskFee, wilayaCode)
	return err
}

const deskCols = `
  id, wilaya_id, name_en, name_fr, name_ar,
  address_en, address_fr, address_ar, phone, is_active`

// ActiveDesksByWilaya returns only desks a customer may pick.
func (r *DeliveryRepo) ActiveDesksByWilaya(wilayaID int64) ([]domain.DeliveryDesk, error) {
	var out []domain.DeliveryDesk
	err := r.db.Select(&out, `
	  SELECT `+deskCols+` FROM delivery_desks
	  WHERE wilaya_id = ? AND is_active = 1
	  ORDER BY id`, wilayaID)
	return out, err
}

func (r *DeliveryRepo) ListDesks() ([]domain.DeliveryDesk, error) {
	var out []domain.DeliveryDesk
	err := r.db.Select(&out, `SELECT `+deskCols+` FROM delivery_desks ORDER BY wilaya_id, id`)
	return out, err
}

func (r *DeliveryRepo) GetDesk(id int64) (domain.DeliveryDesk, error) {
	var d domain.DeliveryDesk
	err := r.db.Get(&d, `SELECT `+deskCols+` FROM delivery_desks WHERE id=?`, id)
	return d, err
}

func (r *DeliveryRepo) CreateDesk(d domain.DeliveryDesk) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO delivery_desks(wilaya_id,name_en,name_fr,name_ar,
	    address_en,address_fr,address_ar,phone,is_active)
	  VALUES(?,?,?,?,?,?,?,?,?)
	`, d.WilayaID, d.NameEN, d.NameFR, d.NameAR,
		d.AddressEN, d.AddressFR, d.AddressAR, d.Phone, d.Active)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *DeliveryRepo) UpdateDesk(d domain.DeliveryDesk) error {
	_, err := r.db.Exec(`
	  UPDATE delivery_desks SET wilaya_id=?, name_en=?, name_fr=?, name_ar=?,
	    address_en=?, address_fr=?, address_ar=?, phone=?, is_active=?
	  WHERE id=?
	`, d.WilayaID, d.NameEN, d.NameFR, d.NameAR,
		d.AddressEN, d.AddressFR, d.AddressAR, d.Phone, d.Active, d.ID)
	return err
}

func (r *DeliveryRepo) DeleteDesk(id int64) error {
	_, err := r.db.Exec(`DELETE FROM delivery_desks WHERE id=?`, id)
	return err
}
