package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"uploadgw/internal/config"
	"uploadgw/internal/domain"
	"uploadgw/internal/grant"
	"uploadgw/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grantctl",
		Short: "Mint, verify and inspect upload grants",
		Long: `grantctl works with the signed upload grants issued by GET /upload.

The signing secret and issuer are read from the same UPLOADGW_ environment
variables as the server.`,
		SilenceUsage: true,
	}
	root.AddCommand(newMintCmd(), newVerifyCmd(), newInspectCmd())
	return root
}

func newMintCmd() *cobra.Command {
	var (
		filename    string
		contentType string
		maxSize     int64
		ttl         time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a grant without contacting the object store",
		Long: `Mint signs a grant for a freshly generated object key. It is meant for
testing bucket policies and clients; it does not presign a store request.

Example:
  grantctl mint --content-type application/pdf --max-size 20971520 --ttl 15m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, cfg, err := loadCodec()
			if err != nil {
				return err
			}
			ct := service.NormalizeContentType(contentType)
			if _, ok := domain.AllowedContentTypes[ct]; !ok {
				return fmt.Errorf("%w: %q", domain.ErrUnsupportedContentType, contentType)
			}
			if ttl < cfg.Token.MinExpiry || ttl > cfg.Token.MaxExpiry {
				return fmt.Errorf("%w: ttl must be within %s-%s", domain.ErrInvalidExpiry, cfg.Token.MinExpiry, cfg.Token.MaxExpiry)
			}
			if maxSize <= 0 {
				return domain.ErrInvalidSize
			}

			issuedAt := time.Now().UTC().Truncate(time.Second)
			token := &domain.CapabilityToken{
				ID:          uuid.New(),
				Key:         service.NewKeyGenerator(nil, nil).Generate(cfg.Storage.KeyPrefix+cfg.Storage.DeferredPrefix, filename, ct),
				ContentType: ct,
				MaxSize:     maxSize,
				IssuedAt:    issuedAt,
				ExpiresAt:   issuedAt.Add(ttl),
			}
			signed, err := codec.Mint(token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "original filename; only its extension is used")
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type the upload must carry")
	cmd.Flags().Int64Var(&maxSize, "max-size", 0, "largest accepted object size in bytes")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "grant lifetime")
	_ = cmd.MarkFlagRequired("content-type")
	_ = cmd.MarkFlagRequired("max-size")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <grant>",
		Short: "Verify a grant's signature and expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, _, err := loadCodec()
			if err != nil {
				return err
			}
			token, err := codec.Verify(args[0])
			if err != nil {
				return err
			}
			return printToken(cmd, token)
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <grant>",
		Short: "Decode a grant without checking its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := grant.Inspect(args[0])
			if err != nil {
				return err
			}
			return printToken(cmd, token)
		},
	}
}

func loadCodec() (*grant.Codec, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	key := grant.NewSigningKey(cfg.Token.SigningSecret)
	if !key.Available() {
		return nil, nil, fmt.Errorf("%w: set UPLOADGW_TOKEN_SIGNING_SECRET", domain.ErrSigningUnavailable)
	}
	return grant.NewCodec(key, cfg.Token.Issuer, nil), cfg, nil
}

type tokenView struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	MaxSize     int64     `json:"maxSize"`
	MaxSizeText string    `json:"maxSizeText"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ExpiresIn   string    `json:"expiresIn"`
}

func printToken(cmd *cobra.Command, t *domain.CapabilityToken) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(tokenView{
		ID:          t.ID.String(),
		Key:         t.Key,
		ContentType: t.ContentType,
		MaxSize:     t.MaxSize,
		MaxSizeText: humanize.IBytes(uint64(t.MaxSize)),
		IssuedAt:    t.IssuedAt,
		ExpiresAt:   t.ExpiresAt,
		ExpiresIn:   humanize.Time(t.ExpiresAt),
	})
}
