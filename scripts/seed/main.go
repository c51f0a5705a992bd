// Command seed loads the schema and development fixtures into the
// configured database. It is idempotent: existing rows are left alone.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Druv08/smart-scheduler/pkg/config"
	"github.com/Druv08/smart-scheduler/pkg/database"
)

type seedRoom struct {
	name     string
	capacity int
}

type seedCourse struct {
	code        string
	name        string
	faculty     string
	maxStudents int
}

var rooms = []seedRoom{
	{"Room 101", 30},
	{"Room 102", 25},
	{"Lab A", 20},
	{"Auditorium", 100},
}

var courses = []seedCourse{
	{"CS101", "Introduction to Computer Science", "admin", 30},
	{"CS201", "Data Structures", "admin", 25},
	{"CS301", "Database Systems", "admin", 20},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if schemaPath := os.Getenv("SCHEMA_FILE"); schemaPath != "" {
		schema, err := os.ReadFile(schemaPath)
		if err != nil {
			log.Fatalf("failed to read schema %s: %v", schemaPath, err)
		}
		if _, err := db.ExecContext(ctx, string(schema)); err != nil {
			log.Fatalf("failed to apply schema: %v", err)
		}
		log.Printf("applied schema from %s", schemaPath)
	}

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ('admin', $1, 'ADMIN')
		ON CONFLICT (username) DO NOTHING`, string(hash))
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Println("created admin user")
	}

	for _, r := range rooms {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO rooms (name, capacity)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`, r.name, r.capacity); err != nil {
			log.Fatalf("failed to seed room %s: %v", r.name, err)
		}
	}

	for _, c := range courses {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO courses (code, name, faculty, max_students)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO NOTHING`, c.code, c.name, c.faculty, c.maxStudents); err != nil {
			log.Fatalf("failed to seed course %s: %v", c.code, err)
		}
	}

	var userCount, courseCount, roomCount int
	_ = db.GetContext(ctx, &userCount, `SELECT COUNT(*) FROM users`)
	_ = db.GetContext(ctx, &courseCount, `SELECT COUNT(*) FROM courses`)
	_ = db.GetContext(ctx, &roomCount, `SELECT COUNT(*) FROM rooms`)
	log.Printf("seed complete: %d users, %d courses, %d rooms", userCount, courseCount, roomCount)
}
