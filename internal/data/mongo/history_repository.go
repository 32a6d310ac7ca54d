package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fin-api-ledger/internal/domain/history"
	"github.com/fin-api-ledger/internal/domain/statement"
)

const (
	// HistoryCollectionName is the name of the statement history collection in MongoDB
	HistoryCollectionName = "statement_history"
)

type historyDocument struct {
	StatementID   string               `bson:"statement_id"`
	UserID        string               `bson:"user_id"`
	SenderID      string               `bson:"sender_id,omitempty"`
	Participants  []string             `bson:"participants"`
	Type          string               `bson:"type"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Description   string               `bson:"description"`
	CorrelationID string               `bson:"correlation_id,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	ProjectedAt   time.Time            `bson:"projected_at"`
}

func toDocument(entry *history.Entry) (*historyDocument, error) {
	amount, err := primitive.ParseDecimal128(entry.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount %s: %w", entry.Amount, err)
	}

	doc := &historyDocument{
		StatementID:   entry.StatementID.String(),
		UserID:        entry.UserID.String(),
		Type:          string(entry.Type),
		Amount:        amount,
		Description:   entry.Description,
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.CreatedAt,
		ProjectedAt:   entry.ProjectedAt,
	}
	if entry.SenderID != nil {
		doc.SenderID = entry.SenderID.String()
	}
	for _, p := range entry.Participants {
		doc.Participants = append(doc.Participants, p.String())
	}
	return doc, nil
}

func (d *historyDocument) toEntry() (*history.Entry, error) {
	statementID, err := uuid.Parse(d.StatementID)
	if err != nil {
		return nil, fmt.Errorf("invalid statement_id: %w", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	entry := &history.Entry{
		StatementID:   statementID,
		UserID:        userID,
		Type:          statement.OperationType(d.Type),
		Amount:        amount,
		Description:   d.Description,
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.CreatedAt,
		ProjectedAt:   d.ProjectedAt,
	}
	if d.SenderID != "" {
		senderID, err := uuid.Parse(d.SenderID)
		if err != nil {
			return nil, fmt.Errorf("invalid sender_id: %w", err)
		}
		entry.SenderID = &senderID
	}
	for _, p := range d.Participants {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid participant: %w", err)
		}
		entry.Participants = append(entry.Participants, id)
	}
	return entry, nil
}

var _ history.Repository = (*HistoryRepository)(nil)

// HistoryRepository implements the history.Repository interface for MongoDB
type HistoryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewHistoryRepository creates a new MongoDB statement history repository
func NewHistoryRepository(logger *slog.Logger, db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique statement index and the participant listing index
func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(HistoryCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "statement_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "participants", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		r.logger.Error("Failed to create statement history indexes", "error", err)
		return fmt.Errorf("failed to create statement history indexes: %w", err)
	}
	return nil
}

// Create inserts a projected entry; the unique index turns redeliveries into ErrDuplicateEntry
func (r *HistoryRepository) Create(ctx context.Context, entry *history.Entry) error {
	doc, err := toDocument(entry)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(HistoryCollectionName).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return history.ErrDuplicateEntry{StatementID: entry.StatementID}
		}
		r.logger.Error("Failed to create statement history entry",
			"statement_id", entry.StatementID.String(),
			"error", err)
		return fmt.Errorf("failed to create statement history entry: %w", err)
	}

	return nil
}

// GetByStatementID retrieves the projection of one statement
func (r *HistoryRepository) GetByStatementID(ctx context.Context, statementID uuid.UUID) (*history.Entry, error) {
	var doc historyDocument
	err := r.db.Collection(HistoryCollectionName).
		FindOne(ctx, bson.M{"statement_id": statementID.String()}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, history.ErrEntryNotFound{StatementID: statementID}
		}
		r.logger.Error("Failed to get statement history entry",
			"statement_id", statementID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get statement history entry: %w", err)
	}

	return doc.toEntry()
}

// GetByAccountID retrieves a page of entries the account participates in, newest first
func (r *HistoryRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*history.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "statement_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(HistoryCollectionName).Find(ctx, bson.M{"participants": accountID.String()}, opts)
	if err != nil {
		r.logger.Error("Failed to get statement history",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get statement history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []historyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode statement history",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode statement history: %w", err)
	}

	entries := make([]*history.Entry, 0, len(docs))
	for i := range docs {
		entry, err := docs[i].toEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to decode statement history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CountByAccountID counts the entries the account participates in
func (r *HistoryRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	count, err := r.db.Collection(HistoryCollectionName).CountDocuments(ctx, bson.M{"participants": accountID.String()})
	if err != nil {
		r.logger.Error("Failed to count statement history",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count statement history: %w", err)
	}

	return count, nil
}
