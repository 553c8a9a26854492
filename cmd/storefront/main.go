// storefront is the command-line client for the rgamer store.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	storefront products
//	storefront product -id N
//	storefront cart
//	storefront add -variant N [-qty N]
//	storefront qty -variant N -qty N
//	storefront rm -variant N
//	storefront clear
//	storefront checkout -name NAME -email EMAIL [-phone P] [-address A] [-notes N]
//	storefront recycle -name NAME -email EMAIL -type TYPE [-desc D]
//	storefront login -user U [-pass P]
//	storefront register -user U -email E [-pass P]
//	storefront logout
//	storefront report [-days N]
//	storefront agent
//
// Examples:
//
//	storefront add -variant 101 -qty 2
//	storefront checkout -name "Ada Lovelace" -email ada@example.cl
//	VARIANT=$(storefront products -q | head -1)
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rgamer-store/internal/account"
	"rgamer-store/internal/agent"
	"rgamer-store/internal/cartstore"
	"rgamer-store/internal/cartsync"
	"rgamer-store/internal/catalog"
	"rgamer-store/internal/checkout"
	"rgamer-store/internal/config"
	"rgamer-store/internal/model"
	"rgamer-store/internal/session"
	"rgamer-store/internal/shop"
	"rgamer-store/internal/storage"
	"rgamer-store/internal/transport"
)

// Global flags (apply to all commands)
var (
	quiet   bool
	noColor bool
	verbose bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorBlue, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "products":
		runProducts(args)
	case "product":
		runProduct(args)
	case "cart":
		runCart(args)
	case "add":
		runAdd(args)
	case "qty":
		runQty(args)
	case "rm":
		runRemove(args)
	case "clear":
		runClear(args)
	case "checkout":
		runCheckout(args)
	case "recycle":
		runRecycle(args)
	case "login":
		runLogin(args)
	case "register":
		runRegister(args)
	case "logout":
		runLogout(args)
	case "report":
		runReport(args)
	case "agent":
		runAgent(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storefront - rgamer store command-line client

Usage:
  storefront <command> [options]

Catalog:
  products  List published products and their variants
  product   Show one product (-id N)

Cart:
  cart      Show the cart (reloads from the server first)
  add       Add a variant to the cart (-variant N [-qty N])
  qty       Set the quantity of a cart line (-variant N -qty N, 0 removes)
  rm        Remove a cart line (-variant N)
  clear     Empty the cart

Orders:
  checkout  Place an order from the cart (-name, -email required)
  recycle   File an equipment recycling request

Account:
  login     Log in (-user U, password prompted if -pass not given)
  register  Create an account (-user U -email E)
  logout    Discard the stored credential

Admin:
  report    Show the management report (staff credential required)

Agent:
  agent     Serve the storefront as MCP tools over stdio

Examples:
  storefront add -variant 101 -qty 2
  storefront checkout -name "Ada Lovelace" -email ada@example.cl
  storefront report -days 30

Run 'storefront <command> -h' for command-specific options.
`)
}

// =============================================================================
// APP WIRING
// =============================================================================

// app holds the wired storefront services for one command invocation.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	cart       *cartstore.Store
	session    *session.Provider
	shop       *shop.Client
	catalog    *catalog.Client
	account    *account.Client
	controller *cartsync.Controller
	finalizer  *checkout.Finalizer
}

// buildApp loads configuration and wires every service. Commands share
// the whole graph even when they use a slice of it; construction is
// cheap and keeps wiring in one place.
func buildApp(ctx context.Context) (*app, error) {
	logger := initLogger()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var stateStore *storage.Store
	if cfg.StateDir != "" {
		stateStore, err = storage.New(cfg.StateDir)
		if err != nil {
			logger.Warn("state store unavailable, running without persistence",
				slog.String("dir", cfg.StateDir),
				slog.String("error", err.Error()))
			stateStore = nil
		}
	}

	var rt http.RoundTripper
	if cfg.BrowserTLS {
		rt = transport.NewBrowserTransport(30 * time.Second)
	} else {
		rt = transport.NewPlainTransport()
	}

	sessionProvider := session.NewProvider(stateStore, logger)
	cartStore := cartstore.New()
	shopClient := shop.NewClient(cfg.APIBaseURL, rt)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		cart:    cartStore,
		session: sessionProvider,
		shop:    shopClient,
		catalog: catalog.NewClient(cfg.APIBaseURL, rt),
		account: account.NewClient(cfg.APIBaseURL, rt, stateStore),
	}
	a.controller = cartsync.NewController(cartStore, shopClient, sessionProvider, logger)
	a.finalizer = checkout.NewFinalizer(cartStore, shopClient, sessionProvider, logger)
	return a, nil
}

// initLogger creates a structured logger configured for the environment.
// Logs go to stderr so command output on stdout stays scriptable.
// Production uses JSON format for GCP Cloud Logging compatibility.
func initLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose || os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func addGlobalFlags(fs *flag.FlagSet) {
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - debug logging")
}

func mustApp(ctx context.Context) *app {
	if noColor {
		disableColors()
	}
	a, err := buildApp(ctx)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	return a
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	addGlobalFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	a := mustApp(ctx)

	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		fatal("Failed to list products: %v", err)
	}

	if quiet {
		for _, p := range products {
			for _, v := range p.Variants {
				fmt.Println(v.ID)
			}
		}
		return
	}

	printSuccess("%d products", len(products))
	for _, p := range products {
		printProduct(&p, false)
	}
}

func runProduct(args []string) {
	fs := flag.NewFlagSet("product", flag.ExitOnError)
	var id int64
	fs.Int64Var(&id, "id", 0, "Product ID (required)")
	addGlobalFlags(fs)
	fs.Parse(args)

	if id == 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	a := mustApp(ctx)

	product, err := a.catalog.GetProduct(ctx, id)
	if err != nil {
		fatal("Failed to get product: %v", err)
	}
	printProduct(product, true)
}

func printProduct(p *catalog.Product, detailed bool) {
	condition := p.Condition
	if p.Grade != "" {
		condition += " (grade " + p.Grade + ")"
	}
	fmt.Printf("%s%s%s  %s%s · %s · %s%s\n",
		colorBold, p.Title, colorReset,
		colorGray, p.Brand.Name, p.Category.Name, condition, colorReset)
	if detailed && p.ShortDesc != "" {
		fmt.Printf("  %s\n", p.ShortDesc)
	}
	for _, v := range p.Variants {
		stock := fmt.Sprintf("%d in stock", v.Stock)
		if v.Stock == 0 {
			stock = "out of stock"
		}
		fmt.Printf("  [%s%d%s] %s  %s%s%s  %s%s%s\n",
			colorCyan, v.ID, colorReset, v.SKU,
			colorGreen, model.DisplayCLP(v.PriceCLP), colorReset,
			colorGray, stock, colorReset)
	}
}

// =============================================================================
// CART COMMANDS
// =============================================================================

func runCart(args []string) {
	fs := flag.NewFlagSet("cart", flag.ExitOnError)
	addGlobalFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	a := mustApp(ctx)

	if err := a.controller.Load(ctx); err != nil {
		fatal("Failed to load cart: %v", err)
	}
	printCart(a.cart)
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	var variantID int64
	var quantity int
	fs.Int64Var(&variantID, "variant", 0, "Variant ID (required, see 'products')")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	addGlobalFlags(fs)
	fs.Parse(args)

	if variantID == 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	a := mustApp(ctx)

	product, variant, err := a.catalog.FindVariant(ctx, variantID)
	if err != nil {
		fatal("Unknown variant %d: %v", variantID, err)
	}

	err = a.controller.Add(ctx,
		model.ProductRef{ID: product.ID, Title: product.Title},
		model.VariantRef{ID: variant.ID, SKU: variant.SKU, PriceCLP: variant.PriceCLP},
		quantity)
	if errors.Is(err, cartsync.ErrAddNotPersisted) {
		printWarning("Added locally, but the server did not accept the item yet")
	} else if err != nil {
		fatal("Failed to add item: %v", err)
	} else {
		printSuccess("Added %d × %s", quantity, product.Title)
	}
	printCart(a.cart)
}

func runQty(args []string) {
	fs := flag.NewFlagSet("qty", flag.ExitOnError)
	var variantID int64
	var quantity int
	fs.Int64Var(&variantID, "variant", 0, "Variant ID (required)")
	fs.IntVar(&quantity, "qty", -1, "Absolute quantity (required, 0 removes the line)")
	addGlobalFlags(fs)
	fs.Parse(args)

	if variantID == 0 || quantity < 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	a := mustApp(ctx)

	if err := a.controller.UpdateQuantity(ctx, variantID, quantity); err != nil {
		fatal("Failed to update quantity: %v", err)
	}
	printSuccess("Quantity updated")
	printCart(a.cart)
}

func runRemove(args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	var variantID int64
	fs.Int64Var(&variantID, "variant", 0, "Variant ID (required)")
	addGlobalFlags(fs)
	fs.Parse(args)

	if variantID == 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	a := mustApp(ctx)

	if err := a.controller.Remove(ctx, variantID); err != nil {
		fatal("Failed to remove item: %v", err)
	}
	printSuccess("Item removed")
	printCart(a.cart)
}

func runClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	addGlobalFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	a := mustApp(ctx)

	if err := a.controller.Clear(ctx); err != nil {
		fatal("Failed to clear cart: %v", err)
	}
	printSuccess("Cart cleared")
}

func printCart(store *cartstore.Store) {
	items := store.Items()
	if len(items) == 0 {
		printInfo("Cart is empty")
		return
	}

	for _, line := range items {
		fmt.Printf("  [%s%d%s] %d × %s  %s%s%s\n",
			colorCyan, line.VariantID, colorReset,
			line.Quantity, line.Title,
			colorGreen, model.DisplayCLP(line.Subtotal()), colorReset)
	}
	fmt.Printf("  Total: %s%s%s\n", colorBold, model.DisplayCLP(store.TotalPrice()), colorReset)
}

// =============================================================================
// CHECKOUT COMMAND
// =============================================================================

func runCheckout(args []string) {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	var customer model.CustomerInfo
	fs.StringVar(&customer.Name, "name", "", "Customer full name (required)")
	fs.StringVar(&customer.Email, "email", "", "Customer email (required)")
	fs.StringVar(&customer.Phone, "phone", "", "Contact phone")
	fs.StringVar(&customer.Address, "address", "", "Delivery address")
	fs.StringVar(&customer.Notes, "notes", "", "Order notes")
	addGlobalFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	a := mustApp(ctx)

	// Sync with the server cart before validating; the order is placed
	// from server state, so stale local state must not pass validation.
	if err := a.controller.Load(ctx); err != nil {
		fatal("Failed to load cart: %v", err)
	}

	conf, err := a.finalizer.Checkout(ctx, customer)
	if err != nil {
		fatal("Checkout failed: %v", err)
	}

	if quiet {
		fmt.Println(conf.OrderID)
		return
	}
	printSuccess("Order placed!")
	fmt.Printf("  Order ID: %s%d%s\n", colorGreen, conf.OrderID, colorReset)
	fmt.Printf("  Total:    %s\n", model.DisplayCLP(conf.TotalCLP))
	fmt.Printf("  Status:   %s%s%s\n", colorCyan, conf.Status, colorReset)
	printInfo("Payment is settled manually; the shop will contact %s", customer.Email)
}

// =============================================================================
// RECYCLING COMMAND
// =============================================================================

func runRecycle(args []string) {
	fs := flag.NewFlagSet("recycle", flag.ExitOnError)
	var req shop.RecyclingRequest
	fs.StringVar(&req.Name, "name", "", "Contact name (required)")
	fs.StringVar(&req.Email, "email", "", "Contact email (required)")
	fs.StringVar(&req.EquipmentType, "type", "", "Equipment type, e.g. notebook, desktop (required)")
	fs.StringVar(&req.Description, "desc", "", "Equipment condition notes")
	addGlobalFlags(fs)
	fs.Parse(args)

	if req.Name == "" || req.Email == "" || req.EquipmentType == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	a := mustApp(ctx)

	if err := a.shop.SubmitRecyclingRequest(ctx, req); err != nil {
		fatal("Failed to submit recycling request: %v", err)
	}
	printSuccess("Recycling request filed, the shop will reach out to %s", req.Email)
}

// =============================================================================
// ACCOUNT COMMANDS
// =============================================================================

func runLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	var username, password string
	fs.StringVar(&username, "user", "", "Username (required)")
	fs.StringVar(&password, "pass", "", "Password (prompted if omitted)")
	addGlobalFlags(fs)
	fs.Parse(args)

	if username == "" {
		fs.Usage()
		os.Exit(1)
	}
	if password == "" {
		password = promptSecret("Password: ")
	}

	ctx := context.Background()
	a := mustApp(ctx)

	user, err := a.account.Login(ctx, username, password)
	if err != nil {
		fatal("Login failed: %v", err)
	}

	printSuccess("Logged in as %s", user.Username)
	if user.IsStaff {
		printInfo("Staff account: the report command is available")
	}
}

func runRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	var username, email, password string
	fs.StringVar(&username, "user", "", "Username (required)")
	fs.StringVar(&email, "email", "", "Email (required)")
	fs.StringVar(&password, "pass", "", "Password (prompted if omitted)")
	addGlobalFlags(fs)
	fs.Parse(args)

	if username == "" || email == "" {
		fs.Usage()
		os.Exit(1)
	}
	if password == "" {
		password = promptSecret("Password: ")
	}

	ctx := context.Background()
	a := mustApp(ctx)

	if err := a.account.Register(ctx, username, email, password); err != nil {
		fatal("Registration failed: %v", err)
	}
	printSuccess("Account created, you can now log in as %s", username)
}

func runLogout(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	addGlobalFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	a := mustApp(ctx)

	if err := a.account.Logout(); err != nil {
		fatal("Logout failed: %v", err)
	}
	printSuccess("Logged out")
}

func promptSecret(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		fatal("Reading input: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

// =============================================================================
// REPORT COMMAND
// =============================================================================

func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var days int
	fs.IntVar(&days, "days", 0, "Also show per-day order statistics for the last N days")
	addGlobalFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	a := mustApp(ctx)

	// Interactive staff login wins; headless deployments carry a
	// pre-issued token in config instead.
	token, ok := a.account.Token()
	if !ok {
		token = a.cfg.Admin.ReportToken
	}
	if token == "" {
		fatal("No credential: log in with a staff account or set ADMIN_REPORT_TOKEN")
	}

	report, err := a.catalog.ManagementReport(ctx, token)
	if err != nil {
		fatal("Failed to fetch report: %v", err)
	}

	printSuccess("Management report")
	fmt.Printf("  Products:           %d\n", report.TotalProducts)
	fmt.Printf("  Units in stock:     %d\n", report.TotalStock)
	fmt.Printf("  Orders:             %d\n", report.OrdersCount)
	fmt.Printf("  Income:             %s%s%s\n", colorGreen, model.DisplayCLP(report.TotalIncome), colorReset)
	fmt.Printf("  Recycling requests: %d\n", report.RecyclingRequests)

	if days <= 0 {
		return
	}

	stats, err := a.shop.Stats(ctx, token, days)
	if err != nil {
		fatal("Failed to fetch statistics: %v", err)
	}

	fmt.Printf("\n%sLast %d days%s\n", colorBold, stats.Days, colorReset)
	for _, day := range stats.Results {
		fmt.Printf("  %s  %2d orders  %2d items  %s%s%s\n",
			day.Date, day.OrdersCount, day.ItemsSold,
			colorGreen, model.DisplayCLP(day.TotalCLP), colorReset)
	}
}

// =============================================================================
// AGENT COMMAND
// =============================================================================

func runAgent(args []string) {
	fs := flag.NewFlagSet("agent", flag.ExitOnError)
	addGlobalFlags(fs)
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := mustApp(ctx)

	ag := agent.New(a.controller, a.finalizer, a.catalog, a.cart, a.logger)
	if err := ag.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal("Agent stopped: %v", err)
	}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
