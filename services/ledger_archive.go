package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"sekolahku_go/config"
	"sekolahku_go/database"
	"sekolahku_go/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// LedgerArchiveService exports aged attendance rows to S3 and flushes
// redis-cached activity logs to the database. Attendance rows are exported
// but never deleted; the ledger stays an append-only audit trail.
type LedgerArchiveService struct {
	redisClient *redis.Client
	awsConfig   aws.Config
}

// ArchivedRecord is the exported representation stored inside archives.
type ArchivedRecord struct {
	ID             uint       `json:"id"`
	StudentID      uint       `json:"student_id"`
	NISN           string     `json:"nisn,omitempty"`
	StudentName    string     `json:"student_name,omitempty"`
	AttendanceDate time.Time  `json:"attendance_date"`
	CheckInTime    *time.Time `json:"check_in_time"`
	CheckOutTime   *time.Time `json:"check_out_time"`
	Status         string     `json:"status"`
	LateMinutes    int        `json:"late_minutes"`
	Method         string     `json:"method"`
}

// NewLedgerArchiveService creates a new service instance
func NewLedgerArchiveService() *LedgerArchiveService {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; S3 operations will fail until configured")
	}

	return &LedgerArchiveService{
		redisClient: database.GetRedisClient(),
		awsConfig:   cfg,
	}
}

// logFlushAge is how long a cached activity log must sit in Redis before the
// flush job persists it. Must stay well under middleware.ActivityLogTTL or
// the cached payload expires before it ever reaches the database.
const logFlushAge = time.Hour

// FlushCachedLogsToDatabase moves activity logs from the Redis write-behind
// cache to the database.
func (las *LedgerArchiveService) FlushCachedLogsToDatabase() error {
	if las.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	cutoffTime := time.Now().Add(-logFlushAge)

	expiredLogs, err := las.redisClient.ZRangeByScore(ctx, "logs:queue", &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoffTime.Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get expired logs: %v", err)
	}

	var processedCount, errorCount int
	for _, logKey := range expiredLogs {
		logData, err := las.redisClient.Get(ctx, logKey).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).Errorf("Failed to get log data for key: %s", logKey)
				errorCount++
			}
			continue
		}

		var activityLog models.ActivityLog
		if err := json.Unmarshal([]byte(logData), &activityLog); err != nil {
			logrus.WithError(err).Errorf("Failed to unmarshal log data for key: %s", logKey)
			errorCount++
			continue
		}

		if err := database.DB.Create(&activityLog).Error; err != nil {
			logrus.WithError(err).Error("Failed to save activity log to database")
			errorCount++
			continue
		}

		pipeline := las.redisClient.Pipeline()
		pipeline.Del(ctx, logKey)
		pipeline.ZRem(ctx, "logs:queue", logKey)
		if _, err = pipeline.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to remove log from cache: %s", logKey)
		}

		processedCount++
	}

	logrus.Infof("Flushed %d activity logs to database, %d errors", processedCount, errorCount)
	return nil
}

// ArchiveOldRecords exports ledger rows older than daysOld to S3 as a zip
// of JSON + CSV. Exported rows remain in the database.
func (las *LedgerArchiveService) ArchiveOldRecords(daysOld int) error {
	if daysOld < 30 {
		return fmt.Errorf("minimum archive age is 30 days")
	}

	cutoffDate := time.Now().AddDate(0, 0, -daysOld)

	// Skip rows the previous run already covered.
	var lastArchived time.Time
	var lastArchive models.AttendanceArchive
	if err := database.DB.Where("status = ?", "completed").
		Order("end_date DESC").First(&lastArchive).Error; err == nil {
		lastArchived = lastArchive.EndDate
	}

	batchSize := 1000
	var allRecords []ArchivedRecord
	for offset := 0; ; offset += batchSize {
		var records []models.SelfAttendanceRecord
		// Stable order keeps Limit/Offset pages from skipping or repeating rows.
		err := database.DB.
			Preload("Student").
			Where("attendance_date >= ? AND attendance_date < ?", lastArchived, cutoffDate).
			Order("attendance_date ASC, id ASC").
			Limit(batchSize).
			Offset(offset).
			Find(&records).Error
		if err != nil {
			return fmt.Errorf("failed to fetch records for archiving: %v", err)
		}
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			allRecords = append(allRecords, ArchivedRecord{
				ID:             rec.ID,
				StudentID:      rec.StudentID,
				NISN:           rec.Student.NISN,
				StudentName:    rec.Student.FirstName + " " + rec.Student.LastName,
				AttendanceDate: rec.AttendanceDate,
				CheckInTime:    rec.CheckInTime,
				CheckOutTime:   rec.CheckOutTime,
				Status:         rec.Status,
				LateMinutes:    rec.LateMinutes,
				Method:         rec.Method,
			})
		}
	}

	if len(allRecords) == 0 {
		logrus.Info("No attendance records to archive")
		return nil
	}
	logrus.Infof("Archiving %d attendance records older than %s", len(allRecords), cutoffDate.Format("2006-01-02"))

	archiveFileName := fmt.Sprintf("attendance_%s.zip", cutoffDate.Format("2006-01-02"))
	zipBuffer, err := las.createZipArchive(allRecords, archiveFileName)
	if err != nil {
		return fmt.Errorf("failed to create ZIP archive: %v", err)
	}

	s3Key := fmt.Sprintf("attendance/archived/%d/%02d/%s",
		cutoffDate.Year(),
		cutoffDate.Month(),
		archiveFileName)

	if err := las.uploadToS3(s3Key, zipBuffer); err != nil {
		return fmt.Errorf("failed to upload archive to S3: %v", err)
	}

	logrus.Infof("Successfully uploaded archive to S3: %s", s3Key)

	archiveMetadata := models.AttendanceArchive{
		FileName:    archiveFileName,
		S3Key:       s3Key,
		StartDate:   lastArchived,
		EndDate:     cutoffDate,
		RecordCount: len(allRecords),
		FileSize:    int64(zipBuffer.Len()),
		Status:      "completed",
	}
	if err := database.DB.Create(&archiveMetadata).Error; err != nil {
		logrus.WithError(err).Error("Failed to save archive metadata")
	}

	return nil
}

// createZipArchive creates a ZIP file containing the records as JSON and CSV
func (las *LedgerArchiveService) createZipArchive(records []ArchivedRecord, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	recordsFile, err := zipWriter.Create("attendance_records.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create records file in ZIP: %v", err)
	}

	encoder := json.NewEncoder(recordsFile)
	encoder.SetIndent("", "  ")
	payload := map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(records),
		"format_version": "1.0",
		"records":        records,
	}
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode records to JSON: %v", err)
	}

	metadataFile, err := zipWriter.Create("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata file in ZIP: %v", err)
	}
	metadata := map[string]any{
		"file_name":    fileName,
		"created_at":   time.Now().UTC(),
		"record_count": len(records),
		"date_range": map[string]any{
			"start": records[0].AttendanceDate,
			"end":   records[len(records)-1].AttendanceDate,
		},
		"schema_version": "1.0",
		"description":    "Sekolahku attendance ledger archive",
	}
	metadataEncoder := json.NewEncoder(metadataFile)
	if err := metadataEncoder.Encode(metadata); err != nil {
		return nil, fmt.Errorf("failed to encode metadata to JSON: %v", err)
	}

	csvFile, err := zipWriter.Create("attendance_records.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file in ZIP: %v", err)
	}

	csvHeader := "ID,Student ID,NISN,Student,Date,Check In,Check Out,Status,Late Minutes,Method\n"
	csvFile.Write([]byte(csvHeader))

	for _, rec := range records {
		csvLine := fmt.Sprintf("%d,%d,%s,%q,%s,%s,%s,%s,%d,%s\n",
			rec.ID,
			rec.StudentID,
			rec.NISN,
			rec.StudentName,
			rec.AttendanceDate.Format("2006-01-02"),
			formatTime(rec.CheckInTime),
			formatTime(rec.CheckOutTime),
			rec.Status,
			rec.LateMinutes,
			rec.Method,
		)
		csvFile.Write([]byte(csvLine))
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ZIP writer: %v", err)
	}

	return buf, nil
}

// uploadToS3 uploads data to the S3 bucket
func (las *LedgerArchiveService) uploadToS3(key string, data *bytes.Buffer) error {
	if las.awsConfig.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(las.awsConfig)
	bucketName := config.AppConfig.S3BucketName

	_, err := s3Client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      &bucketName,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})

	return err
}

// GetArchives retrieves the list of completed archive exports.
func (las *LedgerArchiveService) GetArchives() ([]models.AttendanceArchive, error) {
	var archives []models.AttendanceArchive
	err := database.DB.Order("created_at DESC").Find(&archives).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve archives: %v", err)
	}
	return archives, nil
}

// StartMaintenanceScheduler runs the flush and archive jobs periodically.
func (las *LedgerArchiveService) StartMaintenanceScheduler() {
	go func() {
		// Run immediately once
		if err := las.FlushCachedLogsToDatabase(); err != nil {
			logrus.WithError(err).Warn("initial FlushCachedLogsToDatabase failed")
		}
		if err := las.ArchiveOldRecords(config.AppConfig.ArchiveAfterDays); err != nil {
			logrus.WithError(err).Warn("initial ArchiveOldRecords failed")
		}

		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := las.FlushCachedLogsToDatabase(); err != nil {
				logrus.WithError(err).Warn("periodic FlushCachedLogsToDatabase failed")
			}
			if err := las.ArchiveOldRecords(config.AppConfig.ArchiveAfterDays); err != nil {
				logrus.WithError(err).Warn("periodic ArchiveOldRecords failed")
			}
		}
	}()
}
