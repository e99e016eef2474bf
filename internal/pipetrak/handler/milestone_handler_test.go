package handler

import (
	"net/http"
	"testing"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/clachance14/pipetrak/internal/pipetrak/testutil"
	"go.uber.org/zap"
)

func setupMilestoneTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	svc := service.NewMilestoneService(db, repos, service.NewNotifier(nil, nil, logger), logger)
	handler := NewMilestoneHandler(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.PATCH("/components/:id/milestones/:name", handler.Update)
	api.POST("/milestones/bulk", handler.BulkUpdate)
	api.POST("/milestones/bulk/preview", handler.Preview)
	api.POST("/milestones/:id/resolve-conflict", handler.ResolveConflict)
	api.POST("/transactions/:id/undo", handler.Undo)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedTestComponent(t *testing.T, env *testutil.TestEnv) *entity.Component {
	t.Helper()
	user := testutil.SeedUser(t, env.DB, "test-user-001", "Test Foreman")
	project := testutil.SeedProject(t, env.DB, user.ID)
	template := testutil.SeedTemplate(t, env.DB, project.ID, user.ID, []testutil.TemplateMilestoneSpec{
		{Name: "Receive", Weight: 10},
		{Name: "Install", Weight: 60},
		{Name: "Punch", Weight: 10},
		{Name: "Test", Weight: 15},
		{Name: "Restore", Weight: 5},
	})
	return testutil.SeedComponent(t, env.DB, project, template, "SP-001", entity.WorkflowDiscrete, nil)
}

func TestMilestoneUpdateEndpoint(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "PATCH",
		"/api/v1/components/"+component.ID+"/milestones/Receive",
		map[string]interface{}{"completed": true}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["is_completed"] != true {
		t.Errorf("Expected is_completed true, got %v", data["is_completed"])
	}
}

func TestMilestoneUpdateRequiresAuth(t *testing.T) {
	env := setupMilestoneTest(t)
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "PATCH",
		"/api/v1/components/"+component.ID+"/milestones/Receive",
		map[string]interface{}{"completed": true}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestMilestoneUpdateRejectsAmbiguousValue(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	// Both completed and percentage supplied
	w := testutil.DoRequest(env.Router, "PATCH",
		"/api/v1/components/"+component.ID+"/milestones/Receive",
		map[string]interface{}{"completed": true, "percentage": 50}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// No value at all
	w = testutil.DoRequest(env.Router, "PATCH",
		"/api/v1/components/"+component.ID+"/milestones/Receive",
		map[string]interface{}{}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMilestoneUpdateUnknownComponent(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Foreman")

	w := testutil.DoRequest(env.Router, "PATCH",
		"/api/v1/components/no-such-component/milestones/Receive",
		map[string]interface{}{"completed": true}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMilestoneUpdateValueMismatch(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "PATCH",
		"/api/v1/components/"+component.ID+"/milestones/Receive",
		map[string]interface{}{"percentage": 50}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBulkEndpoint(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/milestones/bulk",
		map[string]interface{}{
			"updates": []map[string]interface{}{
				{"component_id": component.ID, "milestone_name": "Receive", "completed": true},
				{"component_id": component.ID, "milestone_name": "Bogus", "completed": true},
			},
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["successful"].(float64) != 1 || data["failed"].(float64) != 1 {
		t.Errorf("Expected 1/1 outcome, got %v/%v", data["successful"], data["failed"])
	}
	if data["transaction_id"] == "" {
		t.Error("Expected a transaction id in the response")
	}

	results := data["results"].([]interface{})
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	first := results[0].(map[string]interface{})
	if first["success"] != true {
		t.Errorf("Expected first result successful, got %v", first)
	}
}

func TestBulkAtomicEndpoint(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/milestones/bulk",
		map[string]interface{}{
			"atomic": true,
			"updates": []map[string]interface{}{
				{"component_id": component.ID, "milestone_name": "Receive", "completed": true},
				{"component_id": component.ID, "milestone_name": "Bogus", "completed": true},
			},
		}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for atomic rejection, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBulkPreviewEndpoint(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/milestones/bulk/preview",
		map[string]interface{}{
			"updates": []map[string]interface{}{
				{"component_id": component.ID, "milestone_name": "Install", "completed": true},
			},
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	item := items[0].(map[string]interface{})
	if item["projected_percent"].(float64) != 60 {
		t.Errorf("Expected projected 60, got %v", item["projected_percent"])
	}
	if item["current_percent"].(float64) != 0 {
		t.Errorf("Expected current 0, got %v", item["current_percent"])
	}
}

func TestUndoEndpoint(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/milestones/bulk",
		map[string]interface{}{
			"updates": []map[string]interface{}{
				{"component_id": component.ID, "milestone_name": "Receive", "completed": true},
			},
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Bulk update failed: %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	txnID := resp["data"].(map[string]interface{})["transaction_id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/transactions/"+txnID+"/undo", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["reverted"].(float64) != 1 {
		t.Errorf("Expected 1 revert, got %v", data["reverted"])
	}

	// Undoing again conflicts
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/transactions/"+txnID+"/undo", nil, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for repeated undo, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResolveConflictEndpoint(t *testing.T) {
	env := setupMilestoneTest(t)
	token := testutil.DefaultTestToken()
	component := seedTestComponent(t, env)

	w := testutil.DoRequest(env.Router, "POST",
		"/api/v1/milestones/"+component.Milestones[0].ID+"/resolve-conflict",
		map[string]interface{}{
			"strategy": "accept_client",
			"values":   map[string]interface{}{"is_completed": true},
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["is_completed"] != true {
		t.Errorf("Expected client value applied, got %v", data["is_completed"])
	}

	w = testutil.DoRequest(env.Router, "POST",
		"/api/v1/milestones/"+component.Milestones[0].ID+"/resolve-conflict",
		map[string]interface{}{"strategy": "merge"}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for unknown strategy, got %d: %s", w.Code, w.Body.String())
	}
}
