package cli

import (
	"context"
	"fmt"
	"io"

	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type wishlistOptions struct {
	*RootOptions
	Email   string
	APIURL  string
	Token   string
	Product string
}

// NewWishlistCommand は起動中のサーバーに対してクライアント側の操作をする
func NewWishlistCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &wishlistOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show or change the signed-in user's wishlist",
	}

	cmd.PersistentFlags().StringVar(&opts.Email, "email", "", "session email (required)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "API base URL (default: API_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "session bearer token (default: SESSION_TOKEN)")
	_ = cmd.MarkPersistentFlagRequired("email")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Load and print the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWishlistClient(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return w.list(cmd.Context(), cmd.OutOrStdout())
		},
	})

	for _, action := range []string{"add", "remove"} {
		sub := &cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s a product (optimistic, rolled back on failure)", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				w, err := newWishlistClient(opts, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if action == "add" {
					return w.add(cmd.Context(), opts.Product)
				}
				return w.remove(cmd.Context(), opts.Product)
			},
		}
		sub.Flags().StringVar(&opts.Product, "product", "", "product id (required)")
		_ = sub.MarkFlagRequired("product")
		cmd.AddCommand(sub)
	}

	return cmd
}

type wishlistClient struct {
	api    *client.API
	store  *client.WishlistStore
	heart  *client.Heart
	page   *client.Page
	logger *zap.Logger
}

func newWishlistClient(opts *wishlistOptions, out io.Writer) (*wishlistClient, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	l, err := logger.New(cfg.LogLevel, cfg.IsProd())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.Install(l)

	baseURL := cfg.APIBaseURL
	if opts.APIURL != "" {
		baseURL = opts.APIURL
	}
	token := cfg.SessionToken
	if opts.Token != "" {
		token = opts.Token
	}

	api := client.NewAPI(baseURL, client.WithSessionToken(token), client.WithLogger(l.Named("wishlist.client")))
	identity := client.NewIdentity(api, client.NewSession(opts.Email))
	store := client.NewWishlistStore()

	return &wishlistClient{
		api:    api,
		store:  store,
		heart:  client.NewHeart(store, api, identity, client.NewWriterNotifier(out)),
		page:   client.NewPage(store, api, identity),
		logger: l,
	}, nil
}

func (w *wishlistClient) list(ctx context.Context, out io.Writer) error {
	products, err := w.page.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Wishlist Items (%d)\n", w.store.State().WishQuantity)
	if len(products) == 0 {
		fmt.Fprintln(out, "No items in your wishlist.")
		return nil
	}
	for _, p := range products {
		fmt.Fprintf(out, "%s\t%s\t%d\tstock=%d\n", p.ID, p.Title, p.Price, p.InStock)
	}
	return nil
}

// 現在の行を読み込んでからHeartを動かす（表示状態をそろえるため）
func (w *wishlistClient) add(ctx context.Context, productID string) error {
	if _, err := w.page.Load(ctx); err != nil {
		w.logger.Debug("preload wishlist failed", zap.Error(err))
	}

	p, err := w.api.Product(ctx, productID)
	if err != nil {
		// 詳細が取れなくても追加はできる
		w.logger.Debug("product lookup failed", zap.String("product_id", productID), zap.Error(err))
		p = client.Product{ID: client.NormalizeID(productID)}
	}
	return w.heart.Add(ctx, p)
}

func (w *wishlistClient) remove(ctx context.Context, productID string) error {
	if _, err := w.page.Load(ctx); err != nil {
		w.logger.Debug("preload wishlist failed", zap.Error(err))
	}
	return w.heart.Remove(ctx, productID)
}
