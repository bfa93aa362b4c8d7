package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loudim/internal/domain"
	"loudim/internal/repos"

	"github.com/google/uuid"
)

// CatalogService covers the super-admin surface: products with their images
// and sizes, categories, coupons, delivery regions and desks.
type CatalogService struct {
	Cats     *repos.CategoryRepo
	Prods    *repos.ProductRepo
	Coupons  *repos.CouponRepo
	Delivery *repos.DeliveryRepo
	MediaDir string
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo,
	coupons *repos.CouponRepo, delivery *repos.DeliveryRepo, mediaDir string) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Coupons: coupons, Delivery: delivery, MediaDir: mediaDir}
}

// ---------- images ----------

const maxImageBytes = 5 << 20

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// ValidateImage checks extension and size; returns the relative path the
// file should be stored under (uuid name, products/ subdir).
func (s *CatalogService) ValidateImage(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		return "", &ValidationError{Msg: fmt.Sprintf("unsupported image type %s", ext)}
	}
	if size <= 0 || size > maxImageBytes {
		return "", &ValidationError{Msg: "image exceeds the 5MB limit"}
	}
	return filepath.Join("products", uuid.NewString()+ext), nil
}

func (s *CatalogService) removeImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(filepath.Join(s.MediaDir, p))
	}
}

// ---------- products ----------

func (s *CatalogService) CreateProduct(in repos.ProductInput, sizes []repos.SizeInput, imagePaths []string) (int64, error) {
	if in.NameEN == "" || in.CategoryID <= 0 || in.Price < 0 {
		return 0, &ValidationError{Msg: "name, category and price are required"}
	}
	return s.Prods.Create(in, sizes, imagePaths)
}

func (s *CatalogService) UpdateProduct(id int64, in repos.ProductInput, sizes []repos.SizeInput, newImagePaths []string) error {
	if in.NameEN == "" || in.CategoryID <= 0 || in.Price < 0 {
		return &ValidationError{Msg: "name, category and price are required"}
	}
	return s.Prods.Update(id, in, sizes, newImagePaths)
}

// DeleteProduct removes the rows and then the image files; deletion is
// destructive, there is no soft-delete.
func (s *CatalogService) DeleteProduct(id int64) error {
	paths, err := s.Prods.Delete(id)
	if err != nil {
		return err
	}
	s.removeImageFiles(paths)
	return nil
}

func (s *CatalogService) DeleteProductImage(imageID int64) error {
	path, err := s.Prods.DeleteImage(imageID)
	if err != nil {
		return err
	}
	s.removeImageFiles([]string{path})
	return nil
}

func (s *CatalogService) SetPrimaryImage(productID, imageID int64) error {
	return s.Prods.SetPrimaryImage(productID, imageID)
}

func (s *CatalogService) UpsertSize(productID int64, size string, quantity int) error {
	if size == "" || quantity < 0 {
		return &ValidationError{Msg: "size and a non-negative quantity are required"}
	}
	return s.Prods.UpsertSize(productID, size, quantity)
}

func (s *CatalogService) DeleteSize(sizeID int64) error { return s.Prods.DeleteSize(sizeID) }

// ---------- categories ----------

func (s *CatalogService) CreateCategory(c domain.Category) (int64, error) {
	if c.NameEN == "" || c.Slug == "" {
		return 0, &ValidationError{Msg: "name and slug are required"}
	}
	return s.Cats.Create(c)
}

func (s *CatalogService) UpdateCategory(c domain.Category) error {
	if c.NameEN == "" || c.Slug == "" {
		return &ValidationError{Msg: "name and slug are required"}
	}
	return s.Cats.Update(c)
}

// DeleteCategory refuses while products still reference the category.
func (s *CatalogService) DeleteCategory(id int64) error {
	n, err := s.Cats.ProductCount(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return &ValidationError{Msg: "category still has products"}
	}
	return s.Cats.Delete(id)
}

// ---------- coupons ----------

func validCoupon(c domain.Coupon) error {
	if c.Code == "" {
		return &ValidationError{Msg: "code is required"}
	}
	if c.DiscountType != domain.DiscountPercentage && c.DiscountType != domain.DiscountFixed {
		return &ValidationError{Msg: "discount type must be percentage or fixed"}
	}
	if c.DiscountValue < 0 || (c.DiscountType == domain.DiscountPercentage && c.DiscountValue > 100) {
		return &ValidationError{Msg: "invalid discount value"}
	}
	return nil
}

func (s *CatalogService) CreateCoupon(c domain.Coupon) (int64, error) {
	if err := validCoupon(c); err != nil {
		return 0, err
	}
	return s.Coupons.Create(c)
}

func (s *CatalogService) UpdateCoupon(c domain.Coupon) error {
	if err := validCoupon(c); err != nil {
		return err
	}
	return s.Coupons.Update(c)
}

func (s *CatalogService) DeleteCoupon(id int64) error { return s.Coupons.Delete(id) }

// ---------- delivery ----------

func (s *CatalogService) UpdateCityFees(wilayaCode int, homeFee, deskFee float64) error {
	if homeFee < 0 || deskFee < 0 {
		return &ValidationError{Msg: "fees must be non-negative"}
	}
	return s.Delivery.UpdateCityFees(wilayaCode, homeFee, deskFee)
}

func (s *CatalogService) CreateDesk(d domain.DeliveryDesk) (int64, error) {
	if d.WilayaID <= 0 || d.NameEN == "" {
		return 0, &ValidationError{Msg: "wilaya and name are required"}
	}
	return s.Delivery.CreateDesk(d)
}

func (s *CatalogService) UpdateDesk(d domain.DeliveryDesk) error {
	if d.WilayaID <= 0 || d.NameEN == "" {
		return &ValidationError{Msg: "wilaya and name are required"}
	}
	return s.Delivery.UpdateDesk(d)
}

func (s *CatalogService) DeleteDesk(id int64) error { return s.Delivery.DeleteDesk(id) }
