package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"reviewapi/internal/auth"
	"reviewapi/internal/cache"
	"reviewapi/internal/media"
	"reviewapi/internal/model"
	"reviewapi/internal/repository"
)

const (
	tracerName         = "reviewapi/internal/service"
	maxParallelUploads = 4
)

// CreateReviewInput is a review submission as received from the client.
type CreateReviewInput struct {
	BusinessID string             `json:"business_id" validate:"required,uuid"`
	Comment    string             `json:"comment" validate:"required,min=10"`
	Rating     int                `json:"rating" validate:"required,min=1,max=5"`
	Images     []media.FileUpload `json:"-"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// ReviewPage is one page of a business' reviews.
// From and To are 1-based positions of the first and last item, nil on an empty page.
type ReviewPage struct {
	Data        []model.Review `json:"data"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
	Total       int            `json:"total"`
	LastPage    int            `json:"last_page"`
	From        *int           `json:"from"`
	To          *int           `json:"to"`
}

// StatusChange describes an applied moderation decision.
type StatusChange struct {
	ReviewID   string             `json:"review_id"`
	BusinessID string             `json:"business_id"`
	Status     model.ReviewStatus `json:"status"`
}

// Removal identifies a deleted review.
type Removal struct {
	ReviewID   string `json:"review_id"`
	BusinessID string `json:"business_id"`
}

// MediaStore is the part of media.Attachments the service relies on.
type MediaStore interface {
	Validate(f media.FileUpload) error
	Store(ctx context.Context, f media.FileUpload) (string, error)
	AbsoluteURL(ctx context.Context, p string) (string, error)
	Delete(ctx context.Context, p string) error
}

// Authorizer decides whether a principal manages a business.
type Authorizer interface {
	CanManage(ctx context.Context, p *auth.Principal, businessID string) (bool, error)
}

// ReviewService defines the use cases for business reviews.
type ReviewService interface {
	// List returns a page of reviews for a business, newest first, with image
	// paths resolved to absolute URLs. Pages start at 1.
	List(ctx context.Context, businessID string, page int) (*ReviewPage, error)

	// Create validates the submission, uploads its images and stores the review
	// as pending. Uploaded images are removed again if the review cannot be saved.
	Create(ctx context.Context, p *auth.Principal, in CreateReviewInput) (*model.Review, error)

	// UpdateStatus moderates a review of the given business.
	UpdateStatus(ctx context.Context, p *auth.Principal, businessID, reviewID, status string) (*StatusChange, error)

	// Delete removes a review's images, then the review itself.
	Delete(ctx context.Context, p *auth.Principal, businessID, reviewID string) (*Removal, error)
}

// Option configures the review service.
type Option func(*reviewService)

// WithCache serves List from c and invalidates it on writes.
func WithCache(c cache.ReviewPages) Option {
	return func(s *reviewService) { s.cache = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *reviewService) { s.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *reviewService) { s.metrics = m }
}

// WithManageGate requires status updates and deletions to pass a.
// Without it any authenticated principal may moderate.
func WithManageGate(a Authorizer) Option {
	return func(s *reviewService) { s.gate = a }
}

// WithMaxImages caps the number of images per review. Zero or less means no cap.
func WithMaxImages(n int) Option {
	return func(s *reviewService) { s.maxImages = n }
}

type reviewService struct {
	reviews    repository.ReviewRepository
	businesses repository.BusinessRepository
	media      MediaStore
	cache      cache.ReviewPages
	gate       Authorizer
	metrics    *Metrics
	logger     zerolog.Logger
	validator  *inputValidator
	tracer     trace.Tracer
	pageSize   int
	maxImages  int
}

// NewReviewService constructs a new ReviewService.
func NewReviewService(reviews repository.ReviewRepository, businesses repository.BusinessRepository, store MediaStore, opts ...Option) ReviewService {
	s := &reviewService{
		reviews:    reviews,
		businesses: businesses,
		media:      store,
		cache:      cache.Noop{},
		logger:     zerolog.Nop(),
		validator:  newInputValidator(),
		tracer:     otel.Tracer(tracerName),
		pageSize:   repository.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// log prefers the request-scoped logger placed in ctx by the HTTP layer.
func (s *reviewService) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *reviewService) List(ctx context.Context, businessID string, page int) (*ReviewPage, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.List", trace.WithAttributes(
		attribute.String("business.id", businessID),
		attribute.Int("page", page),
	))
	defer span.End()

	if page < 1 {
		page = 1
	}
	if _, err := uuid.Parse(businessID); err != nil {
		return nil, ErrBusinessNotFound
	}

	var cached ReviewPage
	gen, hit, cacheErr := s.cache.Get(ctx, businessID, page, &cached)
	if cacheErr != nil {
		s.log(ctx).Warn().Err(cacheErr).Str("business_id", businessID).Msg("review list cache read failed")
	} else if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}

	offset := (page - 1) * s.pageSize
	res, err := s.reviews.ListByBusiness(ctx, businessID, repository.PageQuery{Limit: s.pageSize, Offset: offset})
	if err != nil {
		return nil, fail(span, fmt.Errorf("list reviews: %w", err))
	}

	for i := range res.Items {
		if err := s.resolveImages(ctx, &res.Items[i]); err != nil {
			return nil, fail(span, err)
		}
	}

	out := &ReviewPage{
		Data:        res.Items,
		CurrentPage: page,
		PerPage:     s.pageSize,
		Total:       res.Total,
		LastPage:    lastPage(res.Total, s.pageSize),
	}
	if out.Data == nil {
		out.Data = []model.Review{}
	}
	if n := len(out.Data); n > 0 {
		from, to := offset+1, offset+n
		out.From, out.To = &from, &to
	}

	// Without a generation from Get the page could outlive a concurrent write.
	if cacheErr == nil {
		if err := s.cache.Set(ctx, businessID, gen, page, out); err != nil {
			s.log(ctx).Warn().Err(err).Str("business_id", businessID).Msg("review list cache write failed")
		}
	}
	return out, nil
}

func (s *reviewService) Create(ctx context.Context, p *auth.Principal, in CreateReviewInput) (*model.Review, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.Create", trace.WithAttributes(
		attribute.String("business.id", in.BusinessID),
		attribute.Int("images", len(in.Images)),
	))
	defer span.End()

	if p == nil {
		return nil, ErrUnauthorized
	}

	verr, err := s.validateCreate(ctx, in)
	if err != nil {
		return nil, fail(span, err)
	}
	if !verr.empty() {
		return nil, verr
	}

	paths, err := s.storeImages(ctx, in.Images)
	if err != nil {
		return nil, fail(span, err)
	}

	userID := p.ID
	stored, err := s.reviews.Create(ctx, &model.Review{
		ID:         uuid.New().String(),
		BusinessID: in.BusinessID,
		UserID:     &userID,
		AuthorName: p.Name,
		Comment:    in.Comment,
		Rating:     in.Rating,
		Images:     paths,
		Status:     model.ReviewStatusPending,
	})
	if err != nil {
		s.rollbackImages(ctx, paths)
		if errors.Is(err, repository.ErrBusinessNotFound) {
			verr := &ValidationError{}
			verr.add("business_id", "The selected business id is invalid.")
			return nil, verr
		}
		return nil, fail(span, fmt.Errorf("db save failed: %w", err))
	}

	s.invalidate(ctx, stored.BusinessID)
	s.metrics.reviewCreated()
	s.log(ctx).Info().
		Str("review_id", stored.ID).
		Str("business_id", stored.BusinessID).
		Str("user_id", p.ID).
		Int("images", len(paths)).
		Msg("review created")

	if err := s.resolveImages(ctx, stored); err != nil {
		return nil, fail(span, err)
	}
	return stored, nil
}

func (s *reviewService) validateCreate(ctx context.Context, in CreateReviewInput) (*ValidationError, error) {
	verr, err := s.validator.check(in)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		verr = &ValidationError{}
	}

	if _, bad := verr.Errors["business_id"]; !bad {
		ok, err := s.businesses.Exists(ctx, in.BusinessID)
		if err != nil {
			return nil, fmt.Errorf("check business: %w", err)
		}
		if !ok {
			verr.add("business_id", "The selected business id is invalid.")
		}
	}

	if s.maxImages > 0 && len(in.Images) > s.maxImages {
		verr.add("images", fmt.Sprintf("The images field must not have more than %d items.", s.maxImages))
	}
	for i, f := range in.Images {
		field := fmt.Sprintf("images.%d", i)
		switch err := s.media.Validate(f); {
		case err == nil:
		case errors.Is(err, media.ErrTooLarge):
			verr.add(field, "The image must not be greater than 5120 kilobytes.")
		case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrEmptyFile):
			verr.add(field, "The image must be a file of type: jpeg, png, jpg.")
		default:
			return nil, fmt.Errorf("inspect image: %w", err)
		}
	}
	return verr, nil
}

func (s *reviewService) UpdateStatus(ctx context.Context, p *auth.Principal, businessID, reviewID, status string) (*StatusChange, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.UpdateStatus", trace.WithAttributes(
		attribute.String("business.id", businessID),
		attribute.String("review.id", reviewID),
	))
	defer span.End()

	review, err := s.findReview(ctx, businessID, reviewID)
	if err != nil {
		return nil, fail(span, err)
	}
	if p == nil {
		return nil, ErrUnauthorized
	}

	verr, err := s.validator.check(statusInput{Status: status})
	if err != nil {
		return nil, fail(span, err)
	}
	if !verr.empty() {
		return nil, verr
	}
	next, err := model.ParseReviewStatus(status)
	if err != nil {
		return nil, fail(span, err)
	}

	if err := s.authorize(ctx, p, businessID); err != nil {
		return nil, err
	}

	if err := s.reviews.UpdateStatus(ctx, review.ID, next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fail(span, fmt.Errorf("update status: %w", err))
	}

	s.invalidate(ctx, businessID)
	s.metrics.statusUpdated(string(next))
	s.log(ctx).Info().
		Str("review_id", review.ID).
		Str("business_id", businessID).
		Str("from", string(review.Status)).
		Str("to", string(next)).
		Str("user_id", p.ID).
		Msg("review status updated")

	return &StatusChange{ReviewID: review.ID, BusinessID: businessID, Status: next}, nil
}

func (s *reviewService) Delete(ctx context.Context, p *auth.Principal, businessID, reviewID string) (*Removal, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.Delete", trace.WithAttributes(
		attribute.String("business.id", businessID),
		attribute.String("review.id", reviewID),
	))
	defer span.End()

	review, err := s.findReview(ctx, businessID, reviewID)
	if err != nil {
		return nil, fail(span, err)
	}
	if p == nil {
		return nil, ErrUnauthorized
	}
	if err := s.authorize(ctx, p, businessID); err != nil {
		return nil, err
	}

	// Image removal never blocks deleting the review.
	for _, img := range review.Images {
		if err := s.media.Delete(ctx, img); err != nil {
			s.metrics.cleanupFailed()
			s.log(ctx).Warn().Err(err).
				Str("review_id", review.ID).
				Str("business_id", businessID).
				Str("image", img).
				Msg("review image cleanup failed")
		}
	}

	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return nil, fail(span, fmt.Errorf("delete review: %w", err))
	}

	s.invalidate(ctx, businessID)
	s.log(ctx).Info().
		Str("review_id", review.ID).
		Str("business_id", businessID).
		Str("user_id", p.ID).
		Msg("review deleted")

	return &Removal{ReviewID: review.ID, BusinessID: businessID}, nil
}

// findReview resolves the business, then the review scoped to it.
func (s *reviewService) findReview(ctx context.Context, businessID, reviewID string) (*model.Review, error) {
	if _, err := uuid.Parse(businessID); err != nil {
		return nil, ErrBusinessNotFound
	}
	if _, err := s.businesses.FindByID(ctx, businessID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("find business: %w", err)
	}

	if _, err := uuid.Parse(reviewID); err != nil {
		return nil, ErrReviewNotFound
	}
	review, err := s.reviews.FindByBusinessAndID(ctx, businessID, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return review, nil
}

func (s *reviewService) authorize(ctx context.Context, p *auth.Principal, businessID string) error {
	if s.gate == nil {
		return nil
	}
	ok, err := s.gate.CanManage(ctx, p, businessID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		s.log(ctx).Warn().Str("user_id", p.ID).Str("business_id", businessID).Msg("review management denied")
		return ErrForbidden
	}
	return nil
}

func (s *reviewService) resolveImages(ctx context.Context, r *model.Review) error {
	if r.Images == nil {
		r.Images = []string{}
		return nil
	}
	for i, img := range r.Images {
		u, err := s.media.AbsoluteURL(ctx, img)
		if errors.Is(err, media.ErrInvalidPath) {
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve image url: %w", err)
		}
		r.Images[i] = u
	}
	return nil
}

// storeImages uploads files concurrently and returns their paths in input order.
// On failure every upload that did succeed is removed again.
func (s *reviewService) storeImages(ctx context.Context, files []media.FileUpload) ([]string, error) {
	paths := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, f := range files {
		g.Go(func() error {
			key, err := s.media.Store(gctx, f)
			if err != nil {
				return err
			}
			paths[i] = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		stored := make([]string, 0, len(paths))
		for _, p := range paths {
			if p != "" {
				stored = append(stored, p)
			}
		}
		s.rollbackImages(ctx, stored)
		return nil, fmt.Errorf("store image: %w", err)
	}
	return paths, nil
}

func (s *reviewService) rollbackImages(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.media.Delete(ctx, p); err != nil {
			s.metrics.cleanupFailed()
			s.log(ctx).Error().Err(err).Str("image", p).Msg("rollback delete failed")
		}
	}
}

func (s *reviewService) invalidate(ctx context.Context, businessID string) {
	if err := s.cache.Invalidate(ctx, businessID); err != nil {
		s.log(ctx).Warn().Err(err).Str("business_id", businessID).Msg("review list cache invalidation failed")
	}
}

func lastPage(total, perPage int) int {
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
