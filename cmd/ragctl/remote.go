package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bull/docrag/internal/config"
	"github.com/bull/docrag/internal/pagestore"
	"github.com/bull/docrag/internal/remotestore"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage the remote page store",
}

var remoteInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the remote page collection and image bucket",
	Long: `Ensures the multi-vector page collection exists in Qdrant and the
page-image bucket exists in the object store. Both operations are idempotent.`,
	RunE: runRemoteInit,
}

var remoteStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show remote page collection statistics",
	RunE:  runRemoteStats,
}

func init() {
	remoteCmd.AddCommand(remoteInitCmd)
	remoteCmd.AddCommand(remoteStatsCmd)
	rootCmd.AddCommand(remoteCmd)
}

func openRemoteStore(cfg *config.Config) (*remotestore.Store, error) {
	return remotestore.New(remotestore.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.QdrantAPIKey(),
		UseTLS:     cfg.Qdrant.UseTLS,
		Collection: cfg.Qdrant.Collection,
		Dimension:  uint64(cfg.Qdrant.Dimension),
	})
}

func runRemoteInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.Qdrant.Host, cfg.Qdrant.Port)
	store, err := openRemoteStore(cfg)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	fmt.Printf("Collection %q ready (dimension %d)\n", cfg.Qdrant.Collection, cfg.Qdrant.Dimension)

	access, secret := cfg.MinioCredentials()
	images, err := pagestore.New(pagestore.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: access,
		SecretKey: secret,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("connect to object store: %w", err)
	}
	if err := images.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	fmt.Printf("Bucket %q ready\n", cfg.Minio.Bucket)
	return nil
}

func runRemoteStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openRemoteStore(cfg)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	info, err := store.GetCollectionInfo(context.Background())
	if err != nil {
		return fmt.Errorf("collection info: %w", err)
	}
	fmt.Printf("Collection: %s\n", cfg.Qdrant.Collection)
	fmt.Printf("Points: %d\n", info.PointsCount)
	return nil
}
