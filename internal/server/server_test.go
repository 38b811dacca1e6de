package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/smallbiznis/folio/internal/account/domain"
	accountrepo "github.com/smallbiznis/folio/internal/account/repository"
	accountservice "github.com/smallbiznis/folio/internal/account/service"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	auditrepo "github.com/smallbiznis/folio/internal/audit/repository"
	auditservice "github.com/smallbiznis/folio/internal/audit/service"
	"github.com/smallbiznis/folio/internal/config"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	documentrepo "github.com/smallbiznis/folio/internal/document/repository"
	documentservice "github.com/smallbiznis/folio/internal/document/service"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	idemservice "github.com/smallbiznis/folio/internal/idempotency/service"
	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	inventoryservice "github.com/smallbiznis/folio/internal/inventory/service"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	itemrepo "github.com/smallbiznis/folio/internal/item/repository"
	itemservice "github.com/smallbiznis/folio/internal/item/service"
	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	ledgerrepo "github.com/smallbiznis/folio/internal/ledger/repository"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	orgrepo "github.com/smallbiznis/folio/internal/organization/repository"
	seqdomain "github.com/smallbiznis/folio/internal/sequence/domain"
	seqservice "github.com/smallbiznis/folio/internal/sequence/service"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	taxrepo "github.com/smallbiznis/folio/internal/tax/repository"
	taxservice "github.com/smallbiznis/folio/internal/tax/service"
)

type testServer struct {
	srv   *Server
	orgID snowflake.ID

	expenseID snowflake.ID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// A file-backed database: the service reads through its root *gorm.DB
	// while a transaction holds another pooled connection, and every
	// connection to a plain in-memory DSN gets its own empty database.
	dsn := filepath.Join(t.TempDir(), "folio.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&accountdomain.Account{},
		&taxdomain.TaxCode{},
		&itemdomain.Unit{},
		&itemdomain.Item{},
		&documentdomain.Document{},
		&documentdomain.Line{},
		&documentdomain.Allocation{},
		&ledgerdomain.GLHeader{},
		&ledgerdomain.GLLine{},
		&idemdomain.Key{},
		&seqdomain.Counter{},
		&inventorydomain.Movement{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	accounts := accountrepo.NewRepository(db)
	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
	})
	documentSvc := documentservice.NewService(documentservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  documentrepo.NewRepository(node),
		Orgs:  orgrepo.NewRepository(db),
		Accounts: accountservice.NewResolver(accountservice.Params{
			Log: log, Repo: accounts,
		}),
		Taxes: taxservice.NewResolver(taxservice.Params{
			Log: log, Repo: taxrepo.NewRepository(db),
		}),
		Items: itemservice.NewResolver(itemservice.Params{
			Log: log, Repo: itemrepo.NewRepository(db),
		}),
		Ledger: ledgerrepo.NewRepository(node),
		Idem: idemservice.NewService(idemservice.Params{
			DB: db, Log: log, GenID: node,
		}),
		Seq: seqservice.NewAllocator(seqservice.Params{Log: log}),
		Inventory: inventoryservice.NewService(inventoryservice.Params{
			Log: log, GenID: node,
		}),
		Audit: auditSvc,
	})

	srv := NewServer(ServerParams{
		Gin:         NewEngine(log),
		Cfg:         config.Config{AppName: "folio", Environment: "test"},
		Log:         log,
		DB:          db,
		GenID:       node,
		DocumentSvc: documentSvc,
		AuditSvc:    auditSvc,
	})

	ts := &testServer{srv: srv}
	ctx := context.Background()

	ts.expenseID = node.Generate()
	apID := node.Generate()
	require.NoError(t, accounts.Create(ctx, &accountdomain.Account{
		ID: ts.expenseID, OrgID: 1, Code: "6000", Name: "Expenses",
		Type: accountdomain.TypeExpense, IsActive: true,
	}))
	require.NoError(t, accounts.Create(ctx, &accountdomain.Account{
		ID: apID, OrgID: 1, Code: "2000", Name: "Accounts Payable",
		Type: accountdomain.TypeLiability, SubType: accountdomain.SubTypeAccountsPayable, IsActive: true,
	}))

	ts.orgID = 1
	require.NoError(t, orgrepo.NewRepository(db).Create(ctx, &orgdomain.Organization{
		ID:                  1,
		Name:                "Test Org",
		BaseCurrency:        "USD",
		VATBehavior:         orgdomain.VATBehaviorExclusive,
		NegativeStockPolicy: orgdomain.NegativeStockWarn,
		APControlAccountID:  &apID,
	}))

	return ts
}

func (ts *testServer) request(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderOrg, ts.orgID.String())
	req.Header.Set(HeaderActor, "42")
	req.Header.Set(HeaderIdempotencyKey, uuid.NewString())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(w, req)
	return w
}

func (ts *testServer) createBill(t *testing.T) documentdomain.View {
	t.Helper()
	w := ts.request(t, http.MethodPost, "/api/documents", documentdomain.CreateRequest{
		Type:         documentdomain.TypeBill,
		DocumentDate: time.Now().UTC(),
		Lines: []documentdomain.LineRequest{
			{AccountID: ts.expenseID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view documentdomain.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func TestAPI_RequiresOrgHeader(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodGet, "/api/documents/1", nil, map[string]string{HeaderOrg: ""})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_InvalidDocumentID(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodGet, "/api/documents/not-a-number", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_BillLifecycle(t *testing.T) {
	ts := newTestServer(t)

	bill := ts.createBill(t)
	assert.Equal(t, documentdomain.StatusDraft, bill.Status)
	assert.True(t, bill.Total.Equal(decimal.NewFromInt(100)), "total %s", bill.Total)

	path := fmt.Sprintf("/api/documents/%s/post", bill.ID)
	w := ts.request(t, http.MethodPost, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var posted documentdomain.PostResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posted))
	assert.Equal(t, documentdomain.StatusPosted, posted.Document.Status)
	require.NotNil(t, posted.Document.Number)
	assert.Equal(t, "BILL-00001", *posted.Document.Number)

	// Posting an already-posted document conflicts.
	w = ts.request(t, http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// The audit trail recorded both lifecycle events.
	w = ts.request(t, http.MethodGet, "/api/audit_logs?action="+auditdomain.ActionDocumentPosted, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var logs auditdomain.ListAuditLogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs.AuditLogs, 1)
	assert.Equal(t, auditdomain.ActionDocumentPosted, logs.AuditLogs[0].Action)
}

func TestAPI_UnknownDocumentIs404(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodGet, "/api/documents/123456789", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestAPI_EmptyBodyCreateIsRejected(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/documents", documentdomain.CreateRequest{
		Type:         documentdomain.TypeBill,
		DocumentDate: time.Now().UTC(),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestMapError_MissingVATAccountIsValidation(t *testing.T) {
	status, payload := mapError(ledgerdomain.ErrVATAccountNotConfigured)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)

	// Lock dates stay policy violations.
	status, payload = mapError(documentdomain.ErrLockDate)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "policy_violation", payload.Type)
}
