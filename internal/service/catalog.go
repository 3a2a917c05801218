package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/util"
)

// ProductIndex is the full-text index kept next to the product table.
type ProductIndex interface {
	Put(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type CatalogService struct {
	Repo *repo.GormRepo
	// Index is optional. Without it search falls back to the database.
	Index ProductIndex
	Files FileStore
}

type ProductPage struct {
	Items []models.Product `json:"data"`
	Meta  util.Meta        `json:"meta"`
}

type ProductInput struct {
	Name          string
	Description   string
	Category      string
	PriceMWK      int64
	StockQuantity int
	Images        []Upload
}

func (s *CatalogService) List(ctx context.Context, page int) (*ProductPage, error) {
	offset, limit := util.Calculate(page, util.CatalogPageSize)
	total, items, err := s.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

func (s *CatalogService) Detail(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.Repo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) Search(ctx context.Context, query string, page, size int) (*ProductPage, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("q", "this field is required")
	}
	offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.hydrate(ctx, ids)
			if err != nil {
				return nil, err
			}
			return &ProductPage{Items: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
		}
		l.Warn("search_error", "reason", "index unavailable, using database", "error", err)
	}

	total, items, err := s.Repo.SearchProductsLike(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

// hydrate loads hits from the database in hit order. Hits that are no longer
// purchasable are skipped.
func (s *CatalogService) hydrate(ctx context.Context, ids []uint) ([]models.Product, error) {
	rows, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	items := make([]models.Product, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
		}
	}
	return items, nil
}

func validateProduct(in ProductInput, existingImages int) error {
	fe := fieldErrors{}
	switch name := strings.TrimSpace(in.Name); {
	case name == "":
		fe.add("name", "this field is required")
	case len(name) > 200:
		fe.add("name", "must be at most 200 characters")
	}
	switch {
	case in.PriceMWK <= 0:
		fe.add("price_mwk", "must be greater than 0")
	case in.PriceMWK > models.MaxPriceMWK:
		fe.add("price_mwk", fmt.Sprintf("must be at most %d", models.MaxPriceMWK))
	}
	switch {
	case in.StockQuantity < 0:
		fe.add("stock_quantity", "must be 0 or more")
	case in.StockQuantity > models.MaxQuantity:
		fe.add("stock_quantity", fmt.Sprintf("must be at most %d", models.MaxQuantity))
	}
	if len(in.Category) > 100 {
		fe.add("category", "must be at most 100 characters")
	}
	if existingImages+len(in.Images) > models.MaxProductImages {
		fe.add("images", fmt.Sprintf("a product can have at most %d images", models.MaxProductImages))
	}
	return fe.err()
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if len(s) > 200 {
		s = strings.TrimRight(s[:200], "-")
	}
	if s == "" {
		return "product"
	}
	return s
}

func (s *CatalogService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	candidate := base
	for i := 2; i <= 5; i++ {
		taken, err := s.Repo.SlugTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func (s *CatalogService) saveImages(ctx context.Context, uploads []Upload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	if s.Files == nil {
		return nil, errors.New("catalog: no file storage configured")
	}
	refs := make([]string, 0, len(uploads))
	for _, up := range uploads {
		ref, err := s.Files.Save(ctx, "products", up.Filename, up.Body)
		if err != nil {
			s.discard(ctx, refs)
			if ferr := uploadError("images", err); ferr != nil {
				return nil, ferr
			}
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *CatalogService) discard(ctx context.Context, refs []string) {
	if s.Files == nil {
		return
	}
	for _, ref := range refs {
		if err := s.Files.Delete(ctx, ref); err != nil {
			logging.FromContext(ctx).Warn("delete_file_error", "path", ref, "error", err)
		}
	}
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, *p); err != nil {
		logging.FromContext(ctx).Warn("index_product_error", "product_id", p.ID, "error", err)
	}
}

// Reindex pushes every purchasable product into the search index and
// returns how many were written.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, errors.New("search index is not configured")
	}
	l := logging.FromContext(ctx).With("svc", "catalog.reindex")

	const batch = 200
	n := 0
	for offset := 0; ; offset += batch {
		_, items, err := s.Repo.ListProducts(ctx, offset, batch)
		if err != nil {
			return n, err
		}
		for i := range items {
			if err := s.Index.Put(ctx, items[i]); err != nil {
				l.Error("reindex_error", "product_id", items[i].ID, "error", err)
				return n, err
			}
			n++
		}
		if len(items) < batch {
			break
		}
	}
	l.Info("reindex_success", "count", n)
	return n, nil
}

func (s *CatalogService) VendorProducts(ctx context.Context, actor Actor) ([]models.Product, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanViewVendorArea(actor).Err(); err != nil {
		return nil, err
	}
	return s.Repo.ListVendorProducts(ctx, actor.UserID)
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "vendor_id", actor.UserID)

	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanSell(actor).Err(); err != nil {
		return nil, err
	}
	if err := validateProduct(in, 0); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	refs, err := s.saveImages(ctx, in.Images)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		VendorID:      actor.UserID,
		Name:          strings.TrimSpace(in.Name),
		Slug:          slug,
		Description:   in.Description,
		PriceMWK:      in.PriceMWK,
		StockQuantity: in.StockQuantity,
		Category:      strings.TrimSpace(in.Category),
	}
	for _, ref := range refs {
		p.Images = append(p.Images, models.ProductImage{Path: ref})
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		s.discard(ctx, refs)
		l.Error("create_product_error", "error", err)
		return nil, err
	}

	l.Info("create_product_success", "product_id", p.ID, "slug", p.Slug)
	s.reindex(ctx, p)
	return p, nil
}

// UpdateProduct edits a product owned by the caller. New images are appended;
// the slug never changes so shared links keep working.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id uint, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_product", "product_id", id)

	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if err := CanViewVendorArea(actor).Err(); err != nil {
		return nil, err
	}
	p, err := s.Repo.GetVendorProduct(ctx, actor.UserID, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	existing, err := s.Repo.CountProductImages(ctx, p.ID)
	if err != nil {
		l.Error("count_images_error", "error", err)
		return nil, err
	}
	if err := validateProduct(in, int(existing)); err != nil {
		return nil, err
	}

	refs, err := s.saveImages(ctx, in.Images)
	if err != nil {
		return nil, err
	}
	images := make([]models.ProductImage, 0, len(refs))
	for _, ref := range refs {
		images = append(images, models.ProductImage{ProductID: p.ID, Path: ref})
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.UpdateProduct(ctx, p, map[string]any{
			"name":           strings.TrimSpace(in.Name),
			"description":    in.Description,
			"category":       strings.TrimSpace(in.Category),
			"price_mwk":      in.PriceMWK,
			"stock_quantity": in.StockQuantity,
		}); err != nil {
			return err
		}
		return tx.AddProductImages(ctx, images)
	})
	if err != nil {
		s.discard(ctx, refs)
		l.Error("update_product_error", "error", err)
		return nil, err
	}

	updated, err := s.Repo.GetVendorProduct(ctx, actor.UserID, id)
	if err != nil {
		return nil, err
	}
	l.Info("update_product_success")
	s.reindex(ctx, updated)
	return updated, nil
}

// DeleteProduct removes a product owned by the caller. Products that appear in
// any order are kept and the call fails with ErrConflict.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "product_id", id)

	if err := requireLogin(actor); err != nil {
		return err
	}
	if err := CanViewVendorArea(actor).Err(); err != nil {
		return err
	}
	p, err := s.Repo.GetVendorProduct(ctx, actor.UserID, id)
	if err != nil {
		return notFound(err, "product")
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		ordered, err := tx.ProductOrdered(ctx, p.ID)
		if err != nil {
			return err
		}
		if ordered {
			return fmt.Errorf("%w: product has orders and cannot be deleted", ErrConflict)
		}
		return notFound(tx.DeleteProduct(ctx, p.ID), "product")
	})
	if err != nil {
		l.Warn("delete_product_error", "error", err)
		return err
	}

	paths := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		paths = append(paths, img.Path)
	}
	s.discard(ctx, paths)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, p.ID); err != nil {
			l.Warn("unindex_product_error", "error", err)
		}
	}
	l.Info("delete_product_success")
	return nil
}
