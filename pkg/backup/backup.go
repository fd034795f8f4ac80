// Package backup snapshots the alert database on a schedule.
package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"LifeLine/pkg/errors"
	"LifeLine/pkg/logger"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const filePrefix = "lifeline_backup_"

// Backup writes one snapshot per Run into Dir and keeps the newest Keep
// files (0 keeps everything).
type Backup struct {
	DB     *gorm.DB
	Driver string
	DSN    string
	Dir    string
	Keep   int
	now    func() time.Time
}

func (b *Backup) stamp() string {
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	return now().Format("20060102_150405")
}

// Run 根据驱动执行数据库备份 and returns the written file.
func (b *Backup) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create backup directory")
	}

	var (
		dst string
		err error
	)
	switch b.Driver {
	case "", "sqlite":
		dst = filepath.Join(b.Dir, filePrefix+b.stamp()+".db")
		err = b.sqlite(ctx, dst)
	case "mysql":
		dst = filepath.Join(b.Dir, filePrefix+b.stamp()+".sql")
		err = b.mysqldump(ctx, dst)
	case "pg", "postgres":
		dst = filepath.Join(b.Dir, filePrefix+b.stamp()+".sql")
		err = b.pgdump(ctx, dst)
	default:
		return "", errors.Errorf("unsupported DB_DRIVER: %s", b.Driver)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}

	logger.Info("database backup completed", zap.String("driver", b.Driver), zap.String("file", dst))
	if b.Keep > 0 {
		if removed, err := Prune(b.Dir, b.Keep); err != nil {
			logger.Warn("backup prune failed", zap.Error(err))
		} else if removed > 0 {
			logger.Info("old backups removed", zap.Int("count", removed))
		}
	}
	return dst, nil
}

// sqlite uses VACUUM INTO, which gives a consistent copy of a live
// database.
func (b *Backup) sqlite(ctx context.Context, dst string) error {
	if b.DB == nil {
		return errors.New("sqlite backup needs an open database")
	}
	if err := b.DB.WithContext(ctx).Exec("VACUUM INTO ?", dst).Error; err != nil {
		return errors.Wrap(err, "sqlite backup")
	}
	return nil
}

func (b *Backup) mysqldump(ctx context.Context, dst string) error {
	cfg, err := mysql.ParseDSN(b.DSN)
	if err != nil {
		return errors.Wrap(err, "parse mysql dsn")
	}
	args := []string{"--single-transaction", "--result-file=" + dst, "-u", cfg.User}
	if host, port, ok := strings.Cut(cfg.Addr, ":"); ok {
		args = append(args, "-h", host, "-P", port)
	} else if cfg.Addr != "" {
		args = append(args, "-h", cfg.Addr)
	}
	args = append(args, cfg.DBName)

	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+cfg.Passwd)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "mysqldump: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *Backup) pgdump(ctx context.Context, dst string) error {
	cmd := exec.CommandContext(ctx, "pg_dump", "--no-owner", "--file="+dst, "--dbname="+b.DSN)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "pg_dump: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Prune deletes all but the newest keep backups in dir.
func Prune(dir string, keep int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return 0, nil
	}
	// 时间戳文件名按字典序即按时间排序
	sort.Strings(names)
	removed := 0
	for _, n := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", n, err)
		}
		removed++
	}
	return removed, nil
}
