package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infrarepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// 開発用のデモ商品。IDは固定なので何度流しても増えない
var demoProducts = []model.Product{
	{ID: "demo-mug", Title: "Enamel Mug", Slug: "enamel-mug", Price: 1800, MainImage: "/images/mug.png", InStock: 12},
	{ID: "demo-cap", Title: "Canvas Cap", Slug: "canvas-cap", Price: 2400, MainImage: "/images/cap.png", InStock: 5},
	{ID: "demo-tote", Title: "Tote Bag", Slug: "tote-bag", Price: 3200, MainImage: "/images/tote.png", InStock: 0},
}

type seedOptions struct {
	*RootOptions
	Email string
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo user and demo products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				return err
			}

			gormDB, err := db.Connect(cfg)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer func() { _ = db.Close(gormDB) }()

			if err := db.Migrate(gormDB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			return seedDemo(cmd.Context(), cmd.OutOrStdout(),
				infrarepo.NewUserGormRepository(gormDB),
				infrarepo.NewProductGormRepository(gormDB),
				opts.Email,
			)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "demo@example.com", "email of the demo user")
	return cmd
}

type productCreator interface {
	Create(ctx context.Context, p model.Product) (model.Product, error)
}

func seedDemo(ctx context.Context, out io.Writer, users repo.UserRepository, products productCreator, email string) error {
	email = usecase.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	u, err := users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u = model.User{Email: email, Role: model.RoleUser}
		if err := users.Create(ctx, &u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(out, "user %s created (id=%s)\n", u.Email, u.ID)
	case err != nil:
		return fmt.Errorf("find user: %w", err)
	default:
		fmt.Fprintf(out, "user %s exists (id=%s)\n", u.Email, u.ID)
	}

	for _, p := range demoProducts {
		_, err := products.Create(ctx, p)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fmt.Fprintf(out, "product %s exists\n", p.ID)
			continue
		}
		if err != nil {
			return fmt.Errorf("create product %s: %w", p.ID, err)
		}
		fmt.Fprintf(out, "product %s created\n", p.ID)
	}
	return nil
}
