package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "staybook/internal/domain/listing"
	"staybook/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlisting.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlisting.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

type listingDocument struct {
	ID            string        `bson:"_id"`
	HostID        string        `bson:"host_id"`
	Title         string        `bson:"title"`
	Description   string        `bson:"description"`
	ImageURL      string        `bson:"image_url"`
	Category      string        `bson:"category"`
	LocationValue string        `bson:"location_value"`
	RoomCount     int           `bson:"room_count"`
	GuestCount    int           `bson:"guest_count"`
	BathroomCount int           `bson:"bathroom_count"`
	NightlyRate   moneyDocument `bson:"nightly_rate"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

func newListingDocument(l *domainlisting.Listing) listingDocument {
	return listingDocument{
		ID:            string(l.ID),
		HostID:        string(l.Host),
		Title:         l.Title,
		Description:   l.Description,
		ImageURL:      l.ImageURL,
		Category:      l.Category,
		LocationValue: l.LocationValue,
		RoomCount:     l.RoomCount,
		GuestCount:    l.GuestCount,
		BathroomCount: l.BathroomCount,
		NightlyRate:   moneyDocument{Amount: l.NightlyRate.Amount, Currency: l.NightlyRate.Currency},
		CreatedAt:     l.CreatedAt.UnixMilli(),
		UpdatedAt:     l.UpdatedAt.UnixMilli(),
		Version:       l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlisting.Listing {
	return &domainlisting.Listing{
		ID:            domainlisting.ListingID(d.ID),
		Host:          domainlisting.HostID(d.HostID),
		Title:         d.Title,
		Description:   d.Description,
		ImageURL:      d.ImageURL,
		Category:      d.Category,
		LocationValue: d.LocationValue,
		RoomCount:     d.RoomCount,
		GuestCount:    d.GuestCount,
		BathroomCount: d.BathroomCount,
		NightlyRate:   money.Money{Amount: d.NightlyRate.Amount, Currency: d.NightlyRate.Currency},
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainlisting.Repository = (*ListingRepository)(nil)
