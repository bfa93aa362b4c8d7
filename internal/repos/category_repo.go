package repos

import (
	"loudim/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `
  id, name_en, name_fr, name_ar,
  description_en, description_fr, description_ar,
  slug, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *CategoryRepo) List() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `SELECT `+categoryCols+` FROM categories ORDER BY name_en`)
	return out, err
}

func (r *CategoryRepo) Get(id int64) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	return c, err
}

func (r *CategoryRepo) Create(c domain.Category) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO categories(name_en,name_fr,name_ar,description_en,description_fr,description_ar,slug)
	  VALUES(?,?,?,?,?,?,?)
	`, c.NameEN, c.NameFR, c.NameAR, c.DescriptionEN, c.DescriptionFR, c.DescriptionAR, c.Slug)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CategoryRepo) Update(c domain.Category) error {
	_, err := r.db.Exec(`
	  UPDATE categories SET name_en=?, name_fr=?, name_ar=?,
	    description_en=?, description_fr=?, description_ar=?,
	    slug=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?
	`, c.NameEN, c.NameFR, c.NameAR, c.DescriptionEN, c.DescriptionFR, c.DescriptionAR, c.Slug, c.ID)
	return err
}

// Delete is RESTRICTed by the products FK: deleting a category that still has
// products fails, which the service surfaces as a friendly error.
func (r *CategoryRepo) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM categories WHERE id=?`, id)
	return err
}

func (r *CategoryRepo) ProductCount(id int64) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products WHERE category_id=?`, id)
	return n, err
}
