// Command encryptids is a one-time migration that encrypts plaintext ID
// numbers left over from before at-rest encryption. Rows already holding
// codec output are left untouched, so the run is safe to repeat.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"peakcredit/origination-backend/internal/config"
	"peakcredit/origination-backend/internal/pii"
	"peakcredit/origination-backend/internal/profile"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Security.EncryptionSecret == "" {
		logger.Fatal("ENCRYPTION_SECRET is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	codec := pii.NewCodec(cfg.Security.EncryptionSecret)

	var profiles []profile.Profile
	if err := db.Where("id_number_encrypted <> ''").Find(&profiles).Error; err != nil {
		logger.Fatal("Failed to load profiles", zap.Error(err))
	}

	var migrated, skipped, failed int
	for _, p := range profiles {
		if codec.IsEncrypted(p.IDNumberEncrypted) {
			skipped++
			continue
		}

		encrypted, err := codec.Encrypt(p.IDNumberEncrypted)
		if err != nil {
			logger.Error("Failed to encrypt ID number",
				zap.String("profile_id", p.ID.String()),
				zap.Error(err))
			failed++
			continue
		}

		err = db.Model(&profile.Profile{}).
			Where("id = ?", p.ID).
			Update("id_number_encrypted", encrypted).Error
		if err != nil {
			logger.Error("Failed to update profile",
				zap.String("profile_id", p.ID.String()),
				zap.Error(err))
			failed++
			continue
		}
		migrated++
	}

	logger.Info("Migration finished",
		zap.Int("migrated", migrated),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed))

	if failed > 0 {
		os.Exit(1)
	}
}
