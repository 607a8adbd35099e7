package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/krishimithra/apiserver/internal/mq"
	"github.com/krishimithra/apiserver/types"
)

// ListingCreatedChannel is the broker channel for new-listing events.
const ListingCreatedChannel = "listings.created"

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	GetByID(ctx context.Context, id int) (types.Listing, error)
	List(ctx context.Context, newestFirst bool) ([]types.Listing, error)
	Create(ctx context.Context, listing types.Listing) (types.Listing, error)
	Delete(ctx context.Context, id int) error
}

// ListingService encapsulates listing use-cases. When an event broker is
// configured it announces created listings; broker failures never fail the
// request.
type ListingService struct {
	repo   ListingRepository
	broker *mq.MQ
}

func NewListingService(repo ListingRepository, broker *mq.MQ) *ListingService {
	return &ListingService{repo: repo, broker: broker}
}

func (s *ListingService) GetByID(ctx context.Context, id int) (types.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ListingService) List(ctx context.Context, newestFirst bool) ([]types.Listing, error) {
	return s.repo.List(ctx, newestFirst)
}

func (s *ListingService) Create(ctx context.Context, listing types.Listing) (types.Listing, error) {
	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return types.Listing{}, err
	}
	s.publishCreated(ctx, created)
	return created, nil
}

func (s *ListingService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// ListingCreatedEvent is the payload published on ListingCreatedChannel.
type ListingCreatedEvent struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	OwnerID *int    `json:"owner_id,omitempty"`
	Image   *string `json:"image,omitempty"`
}

func (s *ListingService) publishCreated(ctx context.Context, listing types.Listing) {
	if s.broker == nil {
		return
	}

	event := ListingCreatedEvent{
		ID:      listing.ID,
		Name:    listing.Name,
		OwnerID: listing.OwnerID,
		Image:   listing.Image,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	attrs := map[string]string{"listing_id": strconv.Itoa(listing.ID)}
	_, _ = s.broker.Publish(ctx, ListingCreatedChannel, data, attrs)
}
