package services

import (
	"fmt"
	"testing"

	"github.com/litmer/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDB opens a private in-memory database with all migrations applied.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		Email: fmt.Sprintf("%s@example.com", name),
		Name:  name,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func addMember(t *testing.T, db *gorm.DB, teamID, userID uint, role string) {
	t.Helper()
	m := models.TeamMember{TeamID: teamID, UserID: userID, Role: role}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("add member: %v", err)
	}
}

// fixture is one team with an owner, admin, member, and a non-member, plus
// one project owned by the team owner.
type fixture struct {
	db       *gorm.DB
	owner    models.User
	admin    models.User
	member   models.User
	outsider models.User
	team     models.Team
	project  models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)

	f := &fixture{
		db:       db,
		owner:    createUser(t, db, "owner"),
		admin:    createUser(t, db, "admin"),
		member:   createUser(t, db, "member"),
		outsider: createUser(t, db, "outsider"),
	}

	f.team = models.Team{Name: "Core", OwnerID: f.owner.ID}
	if err := db.Create(&f.team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}
	addMember(t, db, f.team.ID, f.owner.ID, models.RoleOwner)
	addMember(t, db, f.team.ID, f.admin.ID, models.RoleAdmin)
	addMember(t, db, f.team.ID, f.member.ID, models.RoleMember)

	f.project = models.Project{TeamID: f.team.ID, Name: "Website", OwnerID: f.owner.ID}
	if err := db.Create(&f.project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	return f
}

func (f *fixture) createIssue(t *testing.T, ownerID uint, status string, position int) models.Issue {
	t.Helper()
	issue := models.Issue{
		ProjectID: f.project.ID,
		Title:     fmt.Sprintf("issue-%s-%d", status, position),
		Status:    status,
		Priority:  models.PriorityMedium,
		OwnerID:   ownerID,
		Position:  position,
	}
	if err := f.db.Create(&issue).Error; err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return issue
}
