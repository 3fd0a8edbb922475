package downloads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/security"
)

// signedURLTTL bounds how long a redeemed storage URL stays valid. The
// link itself is long-lived; each redemption mints a fresh short URL.
const signedURLTTL = 15 * time.Minute

// Service issues and redeems download links for purchased templates.
type Service interface {
	IssueForOrder(ctx context.Context, order *models.Order) ([]IssuedLink, error)
	Redeem(ctx context.Context, linkID uuid.UUID, token string) (string, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]DownloadLinkDTO, error)
}

// Config carries the issuance limits and the public URL the tokens are
// embedded into.
type Config struct {
	LinkTTL      time.Duration
	MaxDownloads int
	BaseURL      string
}

type linkStore interface {
	CreateBatch(ctx context.Context, links []models.DownloadLink) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DownloadLink, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.DownloadLink, error)
	ListActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.DownloadLink, error)
	Save(ctx context.Context, link *models.DownloadLink) (*models.DownloadLink, error)
	FindLineItem(ctx context.Context, id uuid.UUID) (*models.OrderLineItem, error)
}

type urlSigner interface {
	SignedDownloadURL(bucket, object string, expiry time.Duration) (string, error)
}

type service struct {
	repo   linkStore
	signer urlSigner
	cfg    Config
	logg   *logger.Logger
}

// NewService wires the downloads service.
func NewService(repo linkStore, signer urlSigner, cfg Config, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("downloads: repository is required")
	}
	if signer == nil {
		return nil, errors.New("downloads: url signer is required")
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 30 * 24 * time.Hour
	}
	if cfg.MaxDownloads <= 0 {
		cfg.MaxDownloads = 25
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &service{repo: repo, signer: signer, cfg: cfg, logg: logg}, nil
}

// IssueForOrder creates one link per purchased template. Issuing is
// idempotent per order: a replayed fulfillment event finds the existing
// links and issues nothing, returning no clear tokens.
func (s *service) IssueForOrder(ctx context.Context, order *models.Order) ([]IssuedLink, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items to fulfill")
	}

	existing, err := s.repo.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check existing links")
	}
	if len(existing) > 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.LinkTTL)

	links := make([]models.DownloadLink, 0, len(order.Items))
	issued := make([]IssuedLink, 0, len(order.Items))
	for _, item := range order.Items {
		token, err := security.GenerateDownloadToken()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate download token")
		}
		hash, err := security.HashDownloadToken(token)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash download token")
		}

		link := models.DownloadLink{
			ID:           uuid.New(),
			OrderID:      order.ID,
			OrderItemID:  item.ID,
			ProductID:    item.ProductID,
			CustomerID:   order.CustomerID,
			TokenHash:    hash,
			Status:       enums.DownloadLinkStatusActive,
			ExpiresAt:    expiresAt,
			MaxDownloads: s.cfg.MaxDownloads,
		}
		links = append(links, link)
		issued = append(issued, IssuedLink{
			LinkID:    link.ID,
			ProductID: item.ProductID,
			Title:     item.Title,
			URL:       s.redeemURL(link.ID, token),
			ExpiresAt: expiresAt,
		})
	}

	if err := s.repo.CreateBatch(ctx, links); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store download links")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "download links issued")
	}
	return issued, nil
}

// Redeem validates the presented token and returns a short-lived storage
// URL for the purchased asset. Invalid and expired links both read as
// not-found so the endpoint leaks nothing about which links exist.
func (s *service) Redeem(ctx context.Context, linkID uuid.UUID, token string) (string, error) {
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "download link not found")
	}

	link, err := s.repo.FindByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "download link not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load download link")
	}
	if !security.VerifyDownloadToken(token, link.TokenHash) {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "download link not found")
	}

	now := time.Now().UTC()
	if link.Status != enums.DownloadLinkStatusActive {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "download link not found")
	}
	if now.After(link.ExpiresAt) {
		link.Status = enums.DownloadLinkStatusExpired
		if _, err := s.repo.Save(ctx, link); err != nil && s.logg != nil {
			s.logg.Error(ctx, "failed to expire download link", err)
		}
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "download link not found")
	}
	if link.DownloadCount >= link.MaxDownloads {
		link.Status = enums.DownloadLinkStatusExhausted
		if _, err := s.repo.Save(ctx, link); err != nil && s.logg != nil {
			s.logg.Error(ctx, "failed to exhaust download link", err)
		}
		return "", pkgerrors.New(pkgerrors.CodeValidation, "download limit reached")
	}

	item, err := s.repo.FindLineItem(ctx, link.OrderItemID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load purchased item")
	}

	signedURL, err := s.signer.SignedDownloadURL("", item.AssetObjectKey, signedURLTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to sign download url")
	}

	link.DownloadCount++
	link.LastDownloadedAt = &now
	if link.DownloadCount >= link.MaxDownloads {
		link.Status = enums.DownloadLinkStatusExhausted
	}
	if _, err := s.repo.Save(ctx, link); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to record download")
	}
	return signedURL, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]DownloadLinkDTO, error) {
	links, err := s.repo.ListActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list download links")
	}
	out := make([]DownloadLinkDTO, 0, len(links))
	for i := range links {
		out = append(out, NewDownloadLinkDTO(&links[i]))
	}
	return out, nil
}

func (s *service) redeemURL(linkID uuid.UUID, token string) string {
	return fmt.Sprintf("%s/downloads/%s?token=%s", s.cfg.BaseURL, linkID, token)
}
