package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/types"
)

const (
	plansCollection    = "price_plans"
	accountsCollection = "accounts"
)

// FirestoreSource loads the catalog from Google Cloud Firestore. Each plan is a
// document in "price_plans" keyed by supplier ID and each assignment is a
// document in "accounts" keyed by meter ID.
type FirestoreSource struct {
	client    *firestore.Client
	projectID string
	database  string
}

// ConfiguredFirestore sets up the Firestore source and registers its flags.
func ConfiguredFirestore() *FirestoreSource {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreSource{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Init initializes the Firestore client. It must be called before Load or
// Save.
func (f *FirestoreSource) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreSource) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Load implements Source. Plans are returned ordered by their "order" field.
func (f *FirestoreSource) Load(ctx context.Context) (*Catalog, error) {
	plans, err := f.loadPlans(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := f.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).InfoContext(ctx, "loaded catalog from firestore", slog.Int("plans", len(plans)), slog.Int("accounts", len(accounts)))
	return New(plans, accounts)
}

func (f *FirestoreSource) loadPlans(ctx context.Context) ([]types.PricePlan, error) {
	iter := f.client.Collection(plansCollection).OrderBy("order", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var plans []types.PricePlan
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate price plans: %w", err)
		}
		p, err := planFromDoc(doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "invalid price plan document", slog.String("id", doc.Ref.ID), slog.Any("error", err))
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func planFromDoc(doc *firestore.DocumentSnapshot) (types.PricePlan, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		return types.PricePlan{}, fmt.Errorf("price plan %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return types.PricePlan{}, fmt.Errorf("price plan %s 'json' field is not a string", doc.Ref.ID)
	}
	var p types.PricePlan
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return types.PricePlan{}, fmt.Errorf("failed to unmarshal price plan %s: %w", doc.Ref.ID, err)
	}
	if p.Supplier == "" {
		p.Supplier = types.SupplierID(doc.Ref.ID)
	}
	if v, err := doc.DataAt("location"); err == nil {
		if name, ok := v.(string); ok && name != "" {
			loc, err := time.LoadLocation(name)
			if err != nil {
				return types.PricePlan{}, fmt.Errorf("failed to load location %s: %w", name, err)
			}
			p.Location = loc
		}
	}
	return p, nil
}

func (f *FirestoreSource) loadAccounts(ctx context.Context) (map[string]types.SupplierID, error) {
	iter := f.client.Collection(accountsCollection).Documents(ctx)
	defer iter.Stop()

	accounts := map[string]types.SupplierID{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate accounts: %w", err)
		}
		v, err := doc.DataAt("supplier")
		if err != nil {
			return nil, fmt.Errorf("account %s missing 'supplier' field: %w", doc.Ref.ID, err)
		}
		supplier, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("account %s 'supplier' field is not a string", doc.Ref.ID)
		}
		accounts[doc.Ref.ID] = types.SupplierID(supplier)
	}
	return accounts, nil
}

// Save writes every plan and account in c. Existing documents with the same IDs
// are overwritten.
func (f *FirestoreSource) Save(ctx context.Context, c *Catalog) error {
	for i, p := range c.Plans() {
		jsonBytes, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal price plan: %w", err)
		}
		data := map[string]interface{}{
			"json":  string(jsonBytes),
			"order": i,
		}
		if p.Location != nil {
			data["location"] = p.Location.String()
		}
		if _, err := f.client.Collection(plansCollection).Doc(string(p.Supplier)).Set(ctx, data); err != nil {
			return fmt.Errorf("failed to save price plan %s: %w", p.Supplier, err)
		}
	}
	for meterID, supplier := range c.Accounts() {
		_, err := f.client.Collection(accountsCollection).Doc(meterID).Set(ctx, map[string]interface{}{
			"supplier": string(supplier),
		})
		if err != nil {
			return fmt.Errorf("failed to save account %s: %w", meterID, err)
		}
	}
	return nil
}

// PlanForMeter reads a single assignment directly from Firestore. The bool is
// false when the meter has no account document.
func (f *FirestoreSource) PlanForMeter(ctx context.Context, meterID string) (types.SupplierID, bool, error) {
	doc, err := f.client.Collection(accountsCollection).Doc(meterID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to fetch account %s: %w", meterID, err)
	}
	v, err := doc.DataAt("supplier")
	if err != nil {
		return "", false, fmt.Errorf("account %s missing 'supplier' field: %w", meterID, err)
	}
	supplier, _ := v.(string)
	return types.SupplierID(supplier), supplier != "", nil
}
