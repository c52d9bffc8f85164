package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection("agg_reservation")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// ByListing returns the listing's active reservations ordered by stay start.
func (r *ReservationRepository) ByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainreservation.Reservation, error) {
	filter := bson.M{
		"listing_id": string(id),
		"status":     string(domainreservation.StatusActive),
	}
	opts := options.Find().SetSort(bson.D{{Key: "stay.start", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *ReservationRepository) ByGuest(ctx context.Context, guestID string) ([]*domainreservation.Reservation, error) {
	if guestID == "" {
		return nil, domainreservation.ErrGuestRequired
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"guest_id": guestID}, opts)
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	opts := options.Update().SetUpsert(true)
	result, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainreservation.Reservation, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainreservation.Reservation
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type stayDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type reservationDocument struct {
	ID        string        `bson:"_id"`
	ListingID string        `bson:"listing_id"`
	GuestID   string        `bson:"guest_id"`
	Stay      stayDocument  `bson:"stay"`
	Total     moneyDocument `bson:"total"`
	Status    string        `bson:"status"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

func newReservationDocument(res *domainreservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:        string(res.ID),
		ListingID: string(res.ListingID),
		GuestID:   res.GuestID,
		Stay:      stayDocument{Start: res.Stay.Start.UnixMilli(), End: res.Stay.End.UnixMilli()},
		Total:     moneyDocument{Amount: res.Total.Amount, Currency: res.Total.Currency},
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt.UnixMilli(),
		UpdatedAt: res.UpdatedAt.UnixMilli(),
		Version:   res.Version,
	}
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:        domainreservation.ReservationID(d.ID),
		ListingID: domainlisting.ListingID(d.ListingID),
		GuestID:   d.GuestID,
		Stay: daterange.StayRange{
			Start: timestampToTime(d.Stay.Start),
			End:   timestampToTime(d.Stay.End),
		},
		Total:     money.Money{Amount: d.Total.Amount, Currency: d.Total.Currency},
		Status:    domainreservation.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

var _ domainreservation.Repository = (*ReservationRepository)(nil)
