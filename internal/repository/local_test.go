package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

func newTestLocalManager(t *testing.T) (*LocalManager, *sql.DB) {
	t.Helper()
	db, err := OpenLocalDB(filepath.Join(t.TempDir(), "office.db"))
	require.NoError(t, err)
	m, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, db
}

func readStoredDocument(t *testing.T, db *sql.DB, key string) []byte {
	t.Helper()
	var body []byte
	err := db.QueryRow(`SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	require.NoError(t, err)
	return body
}

func storeDocument(t *testing.T, db *sql.DB, key string, body []byte) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO documents (key, body) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body`, key, body)
	require.NoError(t, err)
}

func TestLocalStartsWithInitialState(t *testing.T) {
	m, _ := newTestLocalManager(t)

	state := m.GetState()
	assert.Empty(t, state.Employees)
	assert.Len(t, state.Layout.Positions, 98)
	assert.Len(t, state.Departments, 5)
	assert.Empty(t, state.History)
}

func TestLocalCreateAssignUnassign(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	ana, err := m.CreateEmployee(ctx, models.CreateEmployeeData{
		Name: "Ana", Department: "QSMX", Position: "Analista",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ana.ID)

	ok, err := m.AssignEmployeeToPosition(ctx, ana.ID, "pos-K1", nil)
	require.NoError(t, err)
	require.True(t, ok)

	pos, found := m.GetPositionByID("pos-K1")
	require.True(t, found)
	assert.True(t, pos.IsOccupied)
	assert.Equal(t, ana.ID, pos.EmployeeID)

	emp, found := m.GetEmployeeByID(ana.ID)
	require.True(t, found)
	assert.Equal(t, "Analista", emp.Position)

	history := m.GetHistory(0)
	require.NotEmpty(t, history)
	assert.Equal(t, models.ActionAssigned, history[0].Action)
	assert.Equal(t, "pos-K1", history[0].PositionID)

	ok, err = m.UnassignEmployeeFromPosition(ctx, ana.ID)
	require.NoError(t, err)
	require.True(t, ok)

	pos, _ = m.GetPositionByID("pos-K1")
	assert.False(t, pos.IsOccupied)
	assert.Empty(t, pos.EmployeeID)

	// repeated unassign is a quiet no-op
	ok, err = m.UnassignEmployeeFromPosition(ctx, ana.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalAssignOccupiedRejected(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	ana, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana"})
	require.NoError(t, err)
	ben, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ben"})
	require.NoError(t, err)

	ok, err := m.AssignEmployeeToPosition(ctx, ana.ID, "pos-K1", nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.AssignEmployeeToPosition(ctx, ben.ID, "pos-K1", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	pos, _ := m.GetPositionByID("pos-K1")
	assert.Equal(t, ana.ID, pos.EmployeeID)
}

func TestLocalPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "office.db")

	db, err := OpenLocalDB(path)
	require.NoError(t, err)
	m, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)

	ana, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana", Department: "QSMX"})
	require.NoError(t, err)
	ok, err := m.AssignEmployeeToPosition(ctx, ana.ID, "pos-K1", nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, m.Close())

	db, err = OpenLocalDB(path)
	require.NoError(t, err)
	reopened, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)
	defer reopened.Close()

	emp, found := reopened.GetEmployeeByID(ana.ID)
	require.True(t, found)
	assert.Equal(t, "Ana", emp.Name)
	pos, _ := reopened.GetPositionByID("pos-K1")
	assert.Equal(t, ana.ID, pos.EmployeeID)
	assert.True(t, pos.IsOccupied)
}

func TestLocalBackupOnWrite(t *testing.T) {
	ctx := context.Background()
	m, db := newTestLocalManager(t)

	_, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana"})
	require.NoError(t, err)
	firstWrite := readStoredDocument(t, db, localPrimaryKey)
	require.NotNil(t, firstWrite)

	_, err = m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ben"})
	require.NoError(t, err)

	backup := readStoredDocument(t, db, localBackupKey)
	assert.Equal(t, firstWrite, backup)
	assert.NotEqual(t, firstWrite, readStoredDocument(t, db, localPrimaryKey))
}

func TestLocalExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	ana, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana", Department: "QSMX", Position: "Analista"})
	require.NoError(t, err)
	_, err = m.AssignEmployeeToPosition(ctx, ana.ID, "pos-K1", nil)
	require.NoError(t, err)

	export := m.ExportData()

	require.NoError(t, m.ClearAllData(ctx))
	assert.Empty(t, m.GetEmployees())

	require.NoError(t, m.ImportData(ctx, export))
	assert.Equal(t, export.Employees, m.GetEmployees())
	pos, _ := m.GetPositionByID("pos-K1")
	assert.Equal(t, ana.ID, pos.EmployeeID)
	assert.Equal(t, export.History, m.GetHistory(0))
}

func TestLocalImportRejectsInvalidSnapshot(t *testing.T) {
	m, _ := newTestLocalManager(t)

	err := m.ImportData(context.Background(), models.ApplicationState{})
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestLocalImportClearsStaleReferences(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	snapshot := models.NewInitialState(time.Now().UTC())
	snapshot.Layout.Positions[0].EmployeeID = "emp-gone"
	snapshot.Layout.Positions[0].IsOccupied = true

	require.NoError(t, m.ImportData(ctx, snapshot))
	pos, _ := m.GetPositionByID("pos-K1")
	assert.Empty(t, pos.EmployeeID)
	assert.False(t, pos.IsOccupied)
}

func TestLocalForceResetLayoutKeepsRoster(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	ana, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana"})
	require.NoError(t, err)
	_, err = m.AssignEmployeeToPosition(ctx, ana.ID, "pos-K1", nil)
	require.NoError(t, err)

	require.NoError(t, m.ForceResetLayout(ctx))

	_, found := m.GetEmployeeByID(ana.ID)
	assert.True(t, found)
	pos, _ := m.GetPositionByID("pos-K1")
	assert.Empty(t, pos.EmployeeID)
	assert.Empty(t, m.GetHistory(0))
}

func TestLocalFixCorruptedEmployeeData(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	snapshot := models.NewInitialState(time.Now().UTC())
	snapshot.Employees = []models.Employee{
		{ID: "emp-1", Name: "Jossafath", Position: "73", Department: "Norteamerica"},
	}
	require.NoError(t, m.ImportData(ctx, snapshot))

	changed, err := m.FixCorruptedEmployeeData(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	emp, _ := m.GetEmployeeByID("emp-1")
	assert.Equal(t, models.DefaultPositionTitle, emp.Position)
	assert.Equal(t, "Jossafath", emp.Name)

	changed, err = m.FixCorruptedEmployeeData(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestLocalSubscribe(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	var snapshots []models.ApplicationState
	unsubscribe := m.Subscribe(func(s models.ApplicationState) {
		snapshots = append(snapshots, s)
	})

	// subscribing delivers the current state immediately
	require.Len(t, snapshots, 1)

	_, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1].Employees, 1)

	unsubscribe()
	_, err = m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ben"})
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestLocalConcurrentMutationsWithListener(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestLocalManager(t)

	ana, err := m.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana"})
	require.NoError(t, err)

	// listeners run on the mutating goroutines; snapshots they receive must
	// be detached from the state concurrent writers keep editing
	var reads atomic.Int64
	m.Subscribe(func(s models.ApplicationState) {
		if len(s.Employees) > 0 {
			reads.Add(int64(len(s.Employees[0].Name)))
		}
	})

	names := []string{"Ana María", "Anabel"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, err := m.UpdateEmployee(ctx, ana.ID, models.UpdateEmployeeData{Name: &name})
				assert.NoError(t, err)
			}
		}(name)
	}
	wg.Wait()

	emp, found := m.GetEmployeeByID(ana.ID)
	require.True(t, found)
	assert.Contains(t, names, emp.Name)
	assert.Positive(t, reads.Load())
}

func TestLocalDiscardsSmallCanvasDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.db")
	db, err := OpenLocalDB(path)
	require.NoError(t, err)

	legacy := []byte(`{"employees":[{"id":"emp-1","name":"Ana"}],` +
		`"layout":{"id":"layout-1","width":800,"height":600,"positions":[]},` +
		`"departments":[],"history":[]}`)
	storeDocument(t, db, localPrimaryKey, legacy)

	m, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)
	defer m.Close()

	assert.Empty(t, m.GetEmployees())
	assert.Len(t, m.GetPositions(), 98)
	assert.Nil(t, readStoredDocument(t, db, localPrimaryKey))
}

func TestLocalDiscardsDocumentWithoutDeskNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.db")
	db, err := OpenLocalDB(path)
	require.NoError(t, err)

	legacy := []byte(`{"employees":[],` +
		`"layout":{"id":"layout-1","width":1200,"height":1900,` +
		`"positions":[{"id":"pos-1","number":1,"x":50,"y":50}]},` +
		`"departments":[],"history":[]}`)
	storeDocument(t, db, localPrimaryKey, legacy)

	m, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)
	defer m.Close()

	assert.Len(t, m.GetPositions(), 98)
	assert.Equal(t, "K1", m.GetPositions()[0].DeskName)
}

func TestLocalMigratesMissingDrawerWorking(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "office.db")
	db, err := OpenLocalDB(path)
	require.NoError(t, err)

	// build a current-format document, then strip one drawerWorking flag
	seed, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)
	ana, err := seed.CreateEmployee(ctx, models.CreateEmployeeData{Name: "Ana"})
	require.NoError(t, err)
	ok, err := seed.AssignEmployeeToPosition(ctx, ana.ID, "pos-K1", &models.WorkstationInfo{
		NodesWorking: true, ElectricalConnection: true, DrawerWorking: false,
	})
	require.NoError(t, err)
	require.True(t, ok)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(readStoredDocument(t, db, localPrimaryKey), &doc))
	layout := doc["layout"].(map[string]any)
	first := layout["positions"].([]any)[0].(map[string]any)
	info := first["workstationInfo"].(map[string]any)
	delete(info, "drawerWorking")
	body, err := json.Marshal(doc)
	require.NoError(t, err)
	storeDocument(t, db, localPrimaryKey, body)

	m, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)
	defer m.Close()

	pos, found := m.GetPositionByID("pos-K1")
	require.True(t, found)
	require.NotNil(t, pos.WorkstationInfo)
	assert.True(t, pos.WorkstationInfo.DrawerWorking)

	// the corrected document was written back
	var stored map[string]any
	require.NoError(t, json.Unmarshal(readStoredDocument(t, db, localPrimaryKey), &stored))
	layout = stored["layout"].(map[string]any)
	first = layout["positions"].([]any)[0].(map[string]any)
	info = first["workstationInfo"].(map[string]any)
	assert.Equal(t, true, info["drawerWorking"])
}

func TestLocalFallsBackToBackupDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.db")
	db, err := OpenLocalDB(path)
	require.NoError(t, err)

	good := models.NewInitialState(time.Now().UTC())
	good.Employees = []models.Employee{{ID: "emp-1", Name: "Ana"}}
	body, err := json.Marshal(good)
	require.NoError(t, err)

	storeDocument(t, db, localPrimaryKey, []byte(`{not json`))
	storeDocument(t, db, localBackupKey, body)

	m, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)
	defer m.Close()

	emp, found := m.GetEmployeeByID("emp-1")
	require.True(t, found)
	assert.Equal(t, "Ana", emp.Name)
}

func TestLocalSaveErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	selectBody := regexp.QuoteMeta(`SELECT body FROM documents WHERE key = ?`)
	insertBody := regexp.QuoteMeta(`INSERT INTO documents`)

	// constructor load: no stored document
	mock.ExpectQuery(selectBody).WillReturnRows(sqlmock.NewRows([]string{"body"}))

	m, err := NewLocalManager(db, zap.NewNop(), AssignPolicyReject)
	require.NoError(t, err)

	// mutation: backup read finds nothing, the write itself fails
	mock.ExpectQuery(selectBody).WillReturnRows(sqlmock.NewRows([]string{"body"}))
	mock.ExpectExec(insertBody).WillReturnError(errors.New("disk full"))

	_, err = m.CreateEmployee(context.Background(), models.CreateEmployeeData{Name: "Ana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist state")
	require.NoError(t, mock.ExpectationsWereMet())
}
