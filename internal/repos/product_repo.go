package repos

import (
	"database/sql"

	"loudim/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, category_id, name_en, name_fr, name_ar,
  description_en, description_fr, description_ar,
  price, discount_price, is_active,
  created_at, COALESCE(updated_at,'') AS updated_at`

// Get loads a product with its images and size rows; sql.ErrNoRows when absent.
func (r *ProductRepo) Get(id int64) (domain.Product, error) {
	var p domain.Product
	if err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id); err != nil {
		return domain.Product{}, err
	}
	if err := r.db.Select(&p.Images, `
	  SELECT id, product_id, image_path, is_primary
	  FROM product_images WHERE product_id = ?
	  ORDER BY is_primary DESC, id
	`, id); err != nil {
		return domain.Product{}, err
	}
	if err := r.db.Select(&p.Sizes, `
	  SELECT id, product_id, size, quantity
	  FROM product_sizes WHERE product_id = ?
	  ORDER BY id
	`, id); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) List(categoryID int64, search string, limit, offset int) ([]domain.Product, error) {
	where := `is_active = 1`
	args := []any{}
	if categoryID > 0 {
		where += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	if search != "" {
		where += ` AND (name_en LIKE ? OR name_fr LIKE ? OR name_ar LIKE ?)`
		pat := "%" + search + "%"
		args = append(args, pat, pat, pat)
	}
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE `+where+`
	  ORDER BY id DESC
	  LIMIT ? OFFSET ?`, args...)
	return out, err
}

// ListAll is the admin view: inactive products included.
func (r *ProductRepo) ListAll() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products ORDER BY id DESC`)
	return out, err
}

func (r *ProductRepo) SizeQuantity(productID int64, size string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `
	  SELECT quantity FROM product_sizes
	  WHERE product_id = ? AND size = ?`, productID, size)
	return qty, err
}

type ProductInput struct {
	CategoryID    int64
	NameEN        string
	NameFR        string
	NameAR        string
	DescriptionEN string
	DescriptionFR string
	DescriptionAR string
	Price         float64
	DiscountPrice sql.NullFloat64
	Active        bool
}

type SizeInput struct {
	Size     string
	Quantity int
}

func (r *ProductRepo) Create(in ProductInput, sizes []SizeInput, imagePaths []string) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  INSERT INTO products(category_id,name_en,name_fr,name_ar,
	    description_en,description_fr,description_ar,price,discount_price,is_active)
	  VALUES(?,?,?,?,?,?,?,?,?,?)
	`, in.CategoryID, in.NameEN, in.NameFR, in.NameAR,
		in.DescriptionEN, in.DescriptionFR, in.DescriptionAR,
		in.Price, in.DiscountPrice, in.Active)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, path := range imagePaths {
		primary := 0
		if i == 0 {
			primary = 1
		}
		if _, err := tx.Exec(`
		  INSERT INTO product_images(product_id,image_path,is_primary) VALUES(?,?,?)
		`, id, path, primary); err != nil {
			return 0, err
		}
	}
	for _, s := range sizes {
		if _, err := tx.Exec(`
		  INSERT INTO product_sizes(product_id,size,quantity) VALUES(?,?,?)
		`, id, s.Size, s.Quantity); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

// Update rewrites the product row, appends any new images and, when sizes is
// non-nil, replaces the whole size set.
func (r *ProductRepo) Update(id int64, in ProductInput, sizes []SizeInput, newImagePaths []string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  UPDATE products SET category_id=?, name_en=?, name_fr=?, name_ar=?,
	    description_en=?, description_fr=?, description_ar=?,
	    price=?, discount_price=?, is_active=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?
	`, in.CategoryID, in.NameEN, in.NameFR, in.NameAR,
		in.DescriptionEN, in.DescriptionFR, in.DescriptionAR,
		in.Price, in.DiscountPrice, in.Active, id); err != nil {
		return err
	}

	for _, path := range newImagePaths {
		if _, err := tx.Exec(`
		  INSERT INTO product_images(product_id,image_path,is_primary) VALUES(?,?,0)
		`, id, path); err != nil {
			return err
		}
	}
	if sizes != nil {
		if _, err := tx.Exec(`DELETE FROM product_sizes WHERE product_id=?`, id); err != nil {
			return err
		}
		for _, s := range sizes {
			if _, err := tx.Exec(`
			  INSERT INTO product_sizes(product_id,size,quantity) VALUES(?,?,?)
			`, id, s.Size, s.Quantity); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Delete removes the product with its images and sizes, returning the stored
// image paths so the caller can unlink the files after the commit.
func (r *ProductRepo) Delete(id int64) ([]string, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var paths []string
	if err := tx.Select(&paths, `SELECT image_path FROM product_images WHERE product_id=?`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM product_images WHERE product_id=?`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM product_sizes WHERE product_id=?`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM products WHERE id=?`, id); err != nil {
		return nil, err
	}
	return paths, tx.Commit()
}

func (r *ProductRepo) SetPrimaryImage(productID, imageID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE product_images SET is_primary=0 WHERE product_id=?`, productID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE product_images SET is_primary=1 WHERE id=? AND product_id=?`, imageID, productID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ProductRepo) DeleteImage(imageID int64) (string, error) {
	var path string
	if err := r.db.Get(&path, `SELECT image_path FROM product_images WHERE id=?`, imageID); err != nil {
		return "", err
	}
	_, err := r.db.Exec(`DELETE FROM product_images WHERE id=?`, imageID)
	return path, err
}

func (r *ProductRepo) UpsertSize(productID int64, size string, quantity int) error {
	_, err := r.db.Exec(`
	  INSERT INTO product_sizes(product_id,size,quantity) VALUES(?,?,?)
	  ON CONFLICT(product_id,size) DO UPDATE SET quantity=excluded.quantity
	`, productID, size, quantity)
	return err
}

func (r *ProductRepo) DeleteSize(sizeID int64) error {
	_, err := r.db.Exec(`DELETE FROM product_sizes WHERE id=?`, sizeID)
	return err
}
