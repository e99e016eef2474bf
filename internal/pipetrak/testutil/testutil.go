package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/clachance14/pipetrak/internal/middleware"
	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_pipetrak"
	JWTSecret  = "pipetrak-jwt-secret-key-2025"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test
// schema. Each test gets an isolated schema that is dropped afterwards.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "pipetrak")
	password := getEnv("DB_PASSWORD", "pipetrak123")
	dbname := getEnv("DB_NAME", "pipetrak")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so all pooled
	// connections use the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"iss":   "pipetrak",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Foreman", "foreman@test.com")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

func testID() string {
	return uuid.New().String()[:32]
}

// SeedUser creates a test user
func SeedUser(t *testing.T, db *gorm.DB, id, name string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:        id,
		Name:      name,
		Email:     id + "@test.com",
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// SeedProject creates an organization, adds userID as a member, and
// creates a project under it.
func SeedProject(t *testing.T, db *gorm.DB, userID string) *entity.Project {
	t.Helper()
	now := time.Now()

	org := &entity.Organization{
		ID:        testID(),
		Name:      "Test Constructors",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("Failed to seed organization: %v", err)
	}

	member := &entity.OrganizationMember{
		ID:             testID(),
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           entity.OrgRoleMember,
		CreatedAt:      now,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to seed organization member: %v", err)
	}

	project := &entity.Project{
		ID:             testID(),
		OrganizationID: org.ID,
		JobNumber:      "J-1001",
		Name:           "Test Job",
		Status:         entity.ProjectStatusActive,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

// TemplateMilestoneSpec describes one milestone for SeedTemplate.
type TemplateMilestoneSpec struct {
	Name           string
	Weight         float64
	QuantityTarget *float64
}

// SeedTemplate creates a milestone template with the given milestones.
func SeedTemplate(t *testing.T, db *gorm.DB, projectID, createdBy string, milestones []TemplateMilestoneSpec) *entity.MilestoneTemplate {
	t.Helper()
	now := time.Now()

	template := &entity.MilestoneTemplate{
		ID:        testID(),
		ProjectID: projectID,
		Name:      "Test Template",
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("Failed to seed template: %v", err)
	}

	for i, m := range milestones {
		row := &entity.TemplateMilestone{
			ID:             testID(),
			TemplateID:     template.ID,
			Name:           m.Name,
			SortOrder:      i + 1,
			Weight:         m.Weight,
			QuantityTarget: m.QuantityTarget,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("Failed to seed template milestone: %v", err)
		}
		template.Milestones = append(template.Milestones, *row)
	}
	return template
}

// SeedComponent creates a component and instantiates its milestones
// from the template.
func SeedComponent(t *testing.T, db *gorm.DB, project *entity.Project, template *entity.MilestoneTemplate, tag, workflowType string, weldID *string) *entity.Component {
	t.Helper()
	now := time.Now()

	component := &entity.Component{
		ID:           testID(),
		ProjectID:    project.ID,
		ComponentID:  tag,
		Type:         entity.ComponentTypeSpool,
		WorkflowType: workflowType,
		TemplateID:   template.ID,
		Status:       entity.ComponentStatusNotStarted,
		WeldID:       weldID,
		CreatedBy:    project.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if weldID != nil {
		component.Type = entity.ComponentTypeFieldWeld
	}
	if err := db.Create(component).Error; err != nil {
		t.Fatalf("Failed to seed component: %v", err)
	}

	for _, def := range template.Milestones {
		milestone := &entity.ComponentMilestone{
			ID:             testID(),
			ComponentID:    component.ID,
			Name:           def.Name,
			SortOrder:      def.SortOrder,
			Weight:         def.Weight,
			QuantityTarget: def.QuantityTarget,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := db.Create(milestone).Error; err != nil {
			t.Fatalf("Failed to seed component milestone: %v", err)
		}
		component.Milestones = append(component.Milestones, *milestone)
	}
	return component
}

// SeedFieldWeld creates a field weld record.
func SeedFieldWeld(t *testing.T, db *gorm.DB, projectID, weldID string) *entity.FieldWeld {
	t.Helper()
	now := time.Now()
	weld := &entity.FieldWeld{
		ID:        testID(),
		ProjectID: projectID,
		WeldID:    weldID,
		WeldSize:  "2\"",
		WeldType:  "BW",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(weld).Error; err != nil {
		t.Fatalf("Failed to seed field weld: %v", err)
	}
	return weld
}

// SeedWelder creates a welder record.
func SeedWelder(t *testing.T, db *gorm.DB, projectID, stencil string) *entity.Welder {
	t.Helper()
	now := time.Now()
	welder := &entity.Welder{
		ID:        testID(),
		ProjectID: projectID,
		Stencil:   stencil,
		Name:      "Welder " + stencil,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(welder).Error; err != nil {
		t.Fatalf("Failed to seed welder: %v", err)
	}
	return welder
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
