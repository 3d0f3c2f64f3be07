package seeders

import (
	"log"

	"sekolahku_go/models"
	"sekolahku_go/utils"

	"gorm.io/gorm"
)

// Run seeds a minimal working dataset: an admin account, one class with a
// few students, the school geofence and a default schedule. Each seeder
// skips silently when its table already has rows.
func Run(db *gorm.DB) error {
	log.Println("Starting database seeding...")

	if err := seedUsers(db); err != nil {
		return err
	}
	if err := seedClassesAndStudents(db); err != nil {
		return err
	}
	if err := seedLocations(db); err != nil {
		return err
	}
	if err := seedSchedules(db); err != nil {
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func seedUsers(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		log.Println("Admin user already seeded, skipping...")
		return nil
	}

	adminPassword, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}
	teacherPassword, err := utils.HashPassword("teacher123")
	if err != nil {
		return err
	}

	users := []models.User{
		{
			Username: "admin",
			Password: adminPassword,
			Email:    "admin@sekolahku.sch.id",
			Role:     "admin",
			Status:   "active",
		},
		{
			Username: "bu.siti",
			Password: teacherPassword,
			Email:    "siti@sekolahku.sch.id",
			Role:     "teacher",
			Status:   "active",
		},
	}
	return db.Create(&users).Error
}

func seedClassesAndStudents(db *gorm.DB) error {
	var count int64
	db.Model(&models.SchoolClass{}).Count(&count)
	if count > 0 {
		log.Println("Classes already seeded, skipping...")
		return nil
	}

	class := models.SchoolClass{
		Name:     "X IPA 1",
		Grade:    "10",
		Homeroom: "Siti Rahmawati",
		Active:   true,
	}
	if err := db.Create(&class).Error; err != nil {
		return err
	}

	students := []struct {
		nisn      string
		firstName string
		lastName  string
		gender    string
	}{
		{"0051234561", "Budi", "Santoso", "male"},
		{"0051234562", "Dewi", "Lestari", "female"},
		{"0051234563", "Agus", "Wijaya", "male"},
	}

	for _, s := range students {
		password, err := utils.HashPassword(s.nisn)
		if err != nil {
			return err
		}
		user := models.User{
			Username: s.nisn,
			Password: password,
			Role:     "student",
			Status:   "active",
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		student := models.Student{
			UserID:    user.ID,
			NISN:      s.nisn,
			FirstName: s.firstName,
			LastName:  s.lastName,
			Gender:    s.gender,
			ClassID:   &class.ID,
			Active:    true,
		}
		if err := db.Create(&student).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedLocations(db *gorm.DB) error {
	var count int64
	db.Model(&models.AttendanceLocation{}).Count(&count)
	if count > 0 {
		log.Println("Locations already seeded, skipping...")
		return nil
	}

	locations := []models.AttendanceLocation{
		{
			Name:         "Kampus Utama",
			Latitude:     -6.200000,
			Longitude:    106.816666,
			RadiusMeters: 150,
			IsActive:     true,
		},
		{
			Name:         "Lapangan Olahraga",
			Latitude:     -6.201500,
			Longitude:    106.818000,
			RadiusMeters: 80,
			IsActive:     true,
		},
	}
	return db.Create(&locations).Error
}

func seedSchedules(db *gorm.DB) error {
	var count int64
	db.Model(&models.AttendanceSchedule{}).Count(&count)
	if count > 0 {
		log.Println("Schedules already seeded, skipping...")
		return nil
	}

	var schedules []models.AttendanceSchedule
	// Monday through Friday, one school-wide window per day.
	for day := 1; day <= 5; day++ {
		schedules = append(schedules, models.AttendanceSchedule{
			Name:                 "Jadwal Reguler",
			DayOfWeek:            day,
			CheckInStart:         "06:00",
			CheckInEnd:           "07:30",
			CheckOutStart:        "14:00",
			CheckOutEnd:          "17:00",
			LateThresholdMinutes: 30,
			IsActive:             true,
		})
	}
	return db.Create(&schedules).Error
}
