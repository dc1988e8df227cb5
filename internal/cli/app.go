package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/paykeeper/internal/api"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/config"
	"github.com/dmitrijs2005/paykeeper/internal/credentials"
	"github.com/dmitrijs2005/paykeeper/internal/filex"
	"github.com/dmitrijs2005/paykeeper/internal/history"
	"github.com/dmitrijs2005/paykeeper/internal/keepalive"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/models"
	"github.com/dmitrijs2005/paykeeper/internal/orders"
	"github.com/dmitrijs2005/paykeeper/internal/session"
)

// App wires the whole application together and implements the REPL commands.
type App struct {
	cfg     *config.Config
	log     logging.Logger
	db      *sql.DB
	hist    history.Repository
	store   credentials.Store
	users   *session.MultiUserContext
	tracker *orders.Tracker
	keeper  *keepalive.Runner
	dataDir string
	reader  *bufio.Reader
}

func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := history.Open(ctx, cfg.HistoryDBPath)
	if err != nil {
		return nil, err
	}
	hist := history.NewSQLiteRepository(db)

	dataDir, err := filex.EnsureSubDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	store := credentials.NewFileStore(cfg.CredentialsPath, log)

	factory := func(username string) (*session.Manager, error) {
		client, err := api.NewHTTPClient(cfg.APIBaseURL, cfg.RequestTimeout, log)
		if err != nil {
			return nil, err
		}
		m := session.NewManager(username, store, client, log)
		m.SetProfileDir(dataDir)
		return m, nil
	}
	users := session.NewMultiUserContext(store, factory, log)

	tracker := orders.NewTracker(hist, &printNotifier{}, orders.Config{
		MinAmount:     cfg.MinDepositAmount,
		DefaultMethod: cfg.DefaultPaymentMethod,
		PollInterval:  cfg.PollInterval,
		TrackTimeout:  cfg.TrackTimeout,
	}, log)

	keeper := keepalive.NewRunner(users, cfg.KeepAliveInterval, log)

	return &App{
		cfg:     cfg,
		log:     log,
		db:      db,
		hist:    hist,
		store:   store,
		users:   users,
		tracker: tracker,
		keeper:  keeper,
		dataDir: dataDir,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run drives the REPL until the user quits, then shuts the background work
// down: the keep-alive loop stops, in-flight order pollers are cancelled and
// waited for.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.keeper.Start()
	defer a.keeper.Stop()
	defer func() { _ = a.db.Close() }()

	a.log.Info(ctx, "starting", "api", a.cfg.APIBaseURL, "credentials", a.cfg.CredentialsPath)

	printlnFn("Welcome to paykeeper (type 'help' for commands)")
	runREPL(ctx, a, bufio.NewScanner(os.Stdin))

	cancel()
	a.tracker.Wait()
}

func (a *App) activeUser() string {
	return a.users.Username()
}

// Users lists the stored accounts.
func (a *App) Users(ctx context.Context) error {
	users := a.store.LoadAll()
	if len(users) == 0 {
		printlnFn("No stored accounts. Use 'login' to add one.")
		return nil
	}

	active := a.users.Username()
	for _, u := range users {
		line := u.Username
		if u.LastLogin != "" {
			line += "  (last login " + u.LastLogin + ")"
		}
		if u.Username == active {
			line += "  *active*"
		}
		printlnFn(line)
	}
	return nil
}

// Login prompts for a username and password, stores them and makes the
// account active.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	if username == "" {
		printlnFn("Username must not be empty.")
		return nil
	}

	pw, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	password := string(pw)

	if err := a.store.Upsert(username, credentials.Update{Password: &password}); err != nil {
		printlnFn("Could not store the account:", err)
		return err
	}

	return a.Switch(ctx, username)
}

// Switch makes a stored account active.
func (a *App) Switch(ctx context.Context, username string) error {
	if err := a.users.Switch(ctx, username); err != nil {
		switch {
		case errors.Is(err, common.ErrSwitchInProgress):
			printlnFn("Another switch is already in progress, try again.")
		case errors.Is(err, common.ErrNotFound):
			printlnFn("No such account. Use 'login' to add it first.")
		default:
			printlnFn("Switch failed:", err)
		}
		return err
	}
	printlnFn("Active user:", username)
	return nil
}

// Deposit creates a deposit order and starts tracking it.
func (a *App) Deposit(ctx context.Context, amountStr string) error {
	mgr := a.users.Active()
	if mgr == nil {
		printlnFn("No active user. Use 'login' or 'switch' first.")
		return common.ErrNoActiveUser
	}

	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil {
		printlnFn("Amount must be a whole number:", amountStr)
		return err
	}

	order, err := a.tracker.Submit(ctx, mgr, amount)
	if err != nil {
		if errors.Is(err, common.ErrAmountTooLow) {
			printlnFn(fmt.Sprintf("Minimum deposit is %d.", a.cfg.MinDepositAmount))
		} else {
			printlnFn("Deposit failed:", err)
		}
		return err
	}

	a.tracker.Track(ctx, mgr, order)

	printlnFn("Order", order.OrderID, "created. Pay with:")
	printlnFn(order.PaymentString)
	if order.PaymentDeadline != "" {
		printlnFn("Pay before:", order.PaymentDeadline)
	}
	return nil
}

// Cancel stops tracking an order.
func (a *App) Cancel(ctx context.Context, orderID string) error {
	if a.tracker.Cancel(ctx, orderID) {
		printlnFn("Order", orderID, "cancelled.")
	} else {
		printlnFn("Order", orderID, "is not being tracked.")
	}
	return nil
}

// History lists the active user's recent orders.
func (a *App) History(ctx context.Context) error {
	username := a.users.Username()
	if username == "" {
		printlnFn("No active user. Use 'login' or 'switch' first.")
		return common.ErrNoActiveUser
	}

	list, err := a.hist.ListByUser(ctx, username, 20)
	if err != nil {
		printlnFn("Could not read history:", err)
		return err
	}
	if len(list) == 0 {
		printlnFn("No orders yet.")
		return nil
	}

	for _, o := range list {
		printlnFn(formatOrderLine(o))
	}
	return nil
}

// formatOrderLine renders one history entry; orders that have not settled
// yet are marked as such.
func formatOrderLine(o models.DepositOrder) string {
	line := fmt.Sprintf("%s  %d  %s  created %s",
		o.OrderID, o.Amount, o.Status, o.CreatedAt.Format("2006-01-02 15:04:05"))
	if o.PaymentTime != "" {
		line += "  paid " + o.PaymentTime
	}
	if !o.Status.Terminal() {
		line += "  (in progress)"
	}
	return line
}

// Balance shows the active user's wallet.
func (a *App) Balance(ctx context.Context) error {
	mgr := a.users.Active()
	if mgr == nil {
		printlnFn("No active user. Use 'login' or 'switch' first.")
		return common.ErrNoActiveUser
	}

	w, err := mgr.API().WalletInfo(ctx)
	if err != nil {
		printlnFn("Could not fetch wallet:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Money: %.2f  Reward: %.2f  Total: %.2f", w.Money, w.Reward, w.Money+w.Reward))
	return nil
}

// Info shows the active user's profile, merging the snapshot saved at login
// with whatever live data the service returns. Partial data is fine.
func (a *App) Info(ctx context.Context) error {
	mgr := a.users.Active()
	if mgr == nil {
		printlnFn("No active user. Use 'login' or 'switch' first.")
		return common.ErrNoActiveUser
	}

	if p, err := session.LoadProfile(a.dataDir, mgr.Username()); err == nil {
		printlnFn("Nickname:", p.NickName)
		if p.MailAddress != "" {
			printlnFn("Email:", p.MailAddress)
		}
		if p.Mobile != "" {
			printlnFn("Mobile:", p.Mobile)
		}
		if p.CurrencyCode != "" {
			printlnFn("Currency:", p.CurrencyCode)
		}
	}

	base, err := mgr.API().PlayerBaseInfo(ctx)
	if err != nil {
		printlnFn("Live profile unavailable:", err)
		return nil
	}
	if base.RealName != "" {
		printlnFn("Real name:", base.RealName)
	}
	for _, b := range base.Banks {
		printlnFn("Bank:", b.BankName, b.CardNo)
	}
	return nil
}

// Refresh checks the active session and re-logs in when needed.
func (a *App) Refresh(ctx context.Context) error {
	loggedIn, err := a.users.EnsureActive(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNoActiveUser) {
			printlnFn("No active user. Use 'login' or 'switch' first.")
		} else {
			printlnFn("Refresh failed:", err)
		}
		return err
	}
	if loggedIn {
		printlnFn("Session refreshed (new login).")
	} else {
		printlnFn("Session is still valid.")
	}
	return nil
}
