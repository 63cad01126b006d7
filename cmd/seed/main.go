// seed inserts development sample data for local testing. Run via
// go run ./cmd/seed. Idempotent: skips inserts if the dev user
// (dev@example.com) already exists.
package main

import (
	"context"
	"log"

	"ordayna/backend/internal/config"
	"ordayna/backend/internal/db"
	homeworkdomain "ordayna/backend/internal/homework/domain"
	homeworkrepo "ordayna/backend/internal/homework/repository"
	institutionrepo "ordayna/backend/internal/institution/repository"
	schooldomain "ordayna/backend/internal/school/domain"
	schoolrepo "ordayna/backend/internal/school/repository"
	"ordayna/backend/internal/security"
	timetabledomain "ordayna/backend/internal/timetable/domain"
	timetablerepo "ordayna/backend/internal/timetable/repository"
	userdomain "ordayna/backend/internal/user/domain"
	userrepo "ordayna/backend/internal/user/repository"
)

const (
	devUserEmail   = "dev@example.com"
	memberEmail    = "member@example.com"
	devPassword    = "password123456"
	devInstitution = "Ordayna Demo School"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	institutions := institutionrepo.NewPostgresRepository(conn)
	school := schoolrepo.NewPostgresRepository(conn)
	timetable := timetablerepo.NewPostgresRepository(conn)
	homework := homeworkrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash: %v", err)
	}

	admin := &userdomain.User{
		DisplayName:  "Dev Admin",
		Email:        devUserEmail,
		Phone:        "36301234567",
		PasswordHash: passwordHash,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	member := &userdomain.User{
		DisplayName:  "Dev Member",
		Email:        memberEmail,
		PasswordHash: passwordHash,
	}
	if err := users.Create(ctx, member); err != nil {
		log.Fatalf("seed member: %v", err)
	}

	inst, err := institutions.Create(ctx, devInstitution, admin.ID)
	if err != nil {
		log.Fatalf("seed institution: %v", err)
	}
	if err := institutions.Invite(ctx, inst.ID, member.ID); err != nil {
		log.Fatalf("seed invite: %v", err)
	}
	if err := institutions.AcceptInvite(ctx, inst.ID, member.ID); err != nil {
		log.Fatalf("seed accept: %v", err)
	}

	class := &schooldomain.Class{InstitutionID: inst.ID, Name: "9.A", Headcount: 28}
	if err := school.CreateClass(ctx, class); err != nil {
		log.Fatalf("seed class: %v", err)
	}
	group := &schooldomain.Group{InstitutionID: inst.ID, Name: "9.A English", Headcount: 14, ClassID: &class.ID}
	if err := school.CreateGroup(ctx, group); err != nil {
		log.Fatalf("seed group: %v", err)
	}
	lesson := &schooldomain.Lesson{InstitutionID: inst.ID, Name: "English"}
	if err := school.CreateLesson(ctx, lesson); err != nil {
		log.Fatalf("seed lesson: %v", err)
	}
	roomType := "language lab"
	room := &schooldomain.Room{InstitutionID: inst.ID, Name: "Room 204", Type: &roomType, Space: 16}
	if err := school.CreateRoom(ctx, room); err != nil {
		log.Fatalf("seed room: %v", err)
	}
	teacher := &schooldomain.Teacher{InstitutionID: inst.ID, Name: "Dev Member", Job: "English teacher", UserID: &member.ID}
	if err := school.CreateTeacher(ctx, teacher); err != nil {
		log.Fatalf("seed teacher: %v", err)
	}

	element := &timetabledomain.Element{
		InstitutionID: inst.ID,
		Duration:      "00:45:00",
		Day:           0,
		From:          "2026-09-01",
		Until:         "2027-06-15",
		GroupID:       &group.ID,
		LessonID:      &lesson.ID,
		TeacherID:     &teacher.ID,
		RoomID:        &room.ID,
	}
	if err := timetable.Create(ctx, element); err != nil {
		log.Fatalf("seed timetable: %v", err)
	}

	hw := &homeworkdomain.Homework{
		InstitutionID: inst.ID,
		LessonID:      &lesson.ID,
		TeacherID:     &teacher.ID,
	}
	if err := homework.Create(ctx, hw); err != nil {
		log.Fatalf("seed homework: %v", err)
	}
	attachment := &homeworkdomain.Attachment{
		InstitutionID: inst.ID,
		HomeworkID:    hw.ID,
		FileName:      "reading-list.pdf",
	}
	if err := homework.CreateAttachment(ctx, attachment); err != nil {
		log.Fatalf("seed attachment: %v", err)
	}

	log.Printf("Seeded %s (institution %d) with demo school data", devInstitution, inst.ID)
}
