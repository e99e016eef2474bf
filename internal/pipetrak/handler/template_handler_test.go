package handler

import (
	"net/http"
	"testing"

	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/clachance14/pipetrak/internal/pipetrak/testutil"
)

func setupTemplateTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	templateHandler := NewTemplateHandler(service.NewTemplateService(repos.Template, repos.Project))
	componentHandler := NewComponentHandler(service.NewComponentService(repos.Component, repos.Template, repos.Project))

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/templates", templateHandler.Create)
	api.GET("/templates/:id", templateHandler.Get)
	api.GET("/projects/:id/templates", templateHandler.List)
	api.POST("/components", componentHandler.Create)
	api.GET("/components/:id", componentHandler.Get)
	api.GET("/projects/:id/components", componentHandler.List)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestTemplateCreateAndInstantiate(t *testing.T) {
	env := setupTemplateTest(t)
	token := testutil.DefaultTestToken()
	user := testutil.SeedUser(t, env.DB, "test-user-001", "Test Foreman")
	project := testutil.SeedProject(t, env.DB, user.ID)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/templates",
		map[string]interface{}{
			"project_id": project.ID,
			"name":       "Standard Spool",
			"milestones": []map[string]interface{}{
				{"name": "Receive", "weight": 10},
				{"name": "Install", "weight": 60},
				{"name": "Punch", "weight": 10},
				{"name": "Test", "weight": 15},
				{"name": "Restore", "weight": 5},
			},
		}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	templateID := resp["data"].(map[string]interface{})["id"].(string)

	// Instantiate a component from the template
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/components",
		map[string]interface{}{
			"project_id":   project.ID,
			"component_id": "SP-001",
			"type":         "SPOOL",
			"template_id":  templateID,
		}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	milestones := data["milestones"].([]interface{})
	if len(milestones) != 5 {
		t.Fatalf("Expected 5 instantiated milestones, got %d", len(milestones))
	}
	first := milestones[0].(map[string]interface{})
	if first["name"] != "Receive" || first["weight"].(float64) != 10 {
		t.Errorf("Expected first milestone Receive/10, got %v", first)
	}
	if data["status"] != "NOT_STARTED" {
		t.Errorf("Expected NOT_STARTED, got %v", data["status"])
	}
}

func TestTemplateCreateRejectsBadWeights(t *testing.T) {
	env := setupTemplateTest(t)
	token := testutil.DefaultTestToken()
	user := testutil.SeedUser(t, env.DB, "test-user-001", "Test Foreman")
	project := testutil.SeedProject(t, env.DB, user.ID)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/templates",
		map[string]interface{}{
			"project_id": project.ID,
			"name":       "Broken",
			"milestones": []map[string]interface{}{
				{"name": "Receive", "weight": 10},
				{"name": "Install", "weight": 60},
			},
		}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for weights not summing to 100, got %d: %s", w.Code, w.Body.String())
	}
}

func TestComponentListFiltering(t *testing.T) {
	env := setupTemplateTest(t)
	token := testutil.DefaultTestToken()
	user := testutil.SeedUser(t, env.DB, "test-user-001", "Test Foreman")
	project := testutil.SeedProject(t, env.DB, user.ID)
	template := testutil.SeedTemplate(t, env.DB, project.ID, user.ID, []testutil.TemplateMilestoneSpec{
		{Name: "Receive", Weight: 100},
	})
	testutil.SeedComponent(t, env.DB, project, template, "SP-001", "MILESTONE_DISCRETE", nil)
	testutil.SeedComponent(t, env.DB, project, template, "SP-002", "MILESTONE_DISCRETE", nil)
	testutil.SeedComponent(t, env.DB, project, template, "VLV-100", "MILESTONE_DISCRETE", nil)

	w := testutil.DoRequest(env.Router, "GET",
		"/api/v1/projects/"+project.ID+"/components?search=SP-", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("Expected 2 matching components, got %d", len(items))
	}
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 2 {
		t.Errorf("Expected total 2, got %v", pagination["total"])
	}
}
