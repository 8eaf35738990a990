// Package aztables stores expenses in Azure Table Storage, one partition
// per owner.
package aztables

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"trackex/internal/core"
	"trackex/internal/log"
)

// Well-known Azurite development account.
const (
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "expenses"

type Store struct {
	client *aztables.Client
	logger *log.Logger
}

// entity is the stored row. PartitionKey is the owner, RowKey the expense id.
type entity struct {
	PartitionKey string  `json:"PartitionKey"`
	RowKey       string  `json:"RowKey"`
	Title        string  `json:"Title"`
	Amount       float64 `json:"Amount"`
	Category     string  `json:"Category"`
	Date         string  `json:"Date"`
	Notes        string  `json:"Notes,omitempty"`
	CreatedAt    string  `json:"CreatedAt,omitempty"`
	UpdatedAt    string  `json:"UpdatedAt,omitempty"`
}

// New connects to the table service and makes sure the table exists.
// Plain http endpoints are treated as Azurite and use its shared key.
func New(ctx context.Context, serviceURL, table string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.ForComponent(log.ComponentStore)
	}
	if table == "" {
		table = DefaultTable
	}

	var svc *aztables.ServiceClient
	if isLocal(serviceURL) {
		logger.Info("Using Azurite credentials for table storage")
		cred, err := aztables.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		svc, err = aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create table service client with shared key: %w", err)
		}
	} else {
		logger.Info("Using default Azure credentials for table storage")
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create default azure credential: %w", err)
		}
		svc, err = aztables.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create table service client: %w", err)
		}
	}

	if _, err := svc.CreateTable(ctx, table, nil); err != nil {
		var azErr *azcore.ResponseError
		if !errors.As(err, &azErr) || azErr.ErrorCode != "TableAlreadyExists" {
			return nil, fmt.Errorf("create table %s: %w", table, err)
		}
	}

	return &Store{client: svc.NewClient(table), logger: logger}, nil
}

func isLocal(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

// ListExpenses reads the owner's partition and sorts it by date, newest
// first. Table storage has no server-side ordering on non-key columns.
func (s *Store) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	filter := partitionFilter(ownerID)
	pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	var raw [][]byte
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list entities: %w", err)
		}
		raw = append(raw, resp.Entities...)
	}
	return decodeEntities(ctx, s.logger, raw), nil
}

// AddExpense inserts a new entity.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	body, err := json.Marshal(toEntity(e))
	if err != nil {
		return core.Expense{}, fmt.Errorf("marshal entity: %w", err)
	}
	if _, err := s.client.AddEntity(ctx, body, nil); err != nil {
		return core.Expense{}, fmt.Errorf("add entity: %w", err)
	}
	return e, nil
}

func partitionFilter(ownerID string) string {
	return fmt.Sprintf("PartitionKey eq '%s'", strings.ReplaceAll(ownerID, "'", "''"))
}

func toEntity(e core.Expense) entity {
	ent := entity{
		PartitionKey: e.UserID,
		RowKey:       e.ID,
		Title:        e.Title,
		Amount:       e.Amount.Float(),
		Category:     e.Category,
		Date:         e.Date.String(),
		Notes:        e.Notes,
	}
	if !e.CreatedAt.IsZero() {
		ent.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !e.UpdatedAt.IsZero() {
		ent.UpdatedAt = e.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return ent
}

func decodeEntities(ctx context.Context, logger *log.Logger, raw [][]byte) []core.Expense {
	records := make([]core.Record, 0, len(raw))
	for _, b := range raw {
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			logger.WarnContext(ctx, "Skipping undecodable entity", log.FieldError, err)
			continue
		}
		records = append(records, core.Record{
			ID:        m["RowKey"],
			UserID:    m["PartitionKey"],
			Title:     m["Title"],
			Amount:    m["Amount"],
			Category:  m["Category"],
			Date:      m["Date"],
			Notes:     m["Notes"],
			CreatedAt: m["CreatedAt"],
			UpdatedAt: m["UpdatedAt"],
		})
	}

	out := core.Quarantine(records, func(r core.Record, err error) {
		logger.WarnContext(ctx, "Quarantined malformed expense entity", log.FieldError, err)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
