package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type seedCountry struct {
	Code     string
	Name     string
	Currency string
}

type seedMethod struct {
	Name string
	Type string
}

// seedCorridorMethod links a payment method to a country and funds the
// country's sub-wallet for it.
type seedCorridorMethod struct {
	Country string
	Method  string
	Min     string
	Max     string // empty means unbounded
	Balance string
}

type seedRate struct {
	Scope         string
	Country       string
	Sender        string
	Receiver      string
	BaseFee       string
	PercentageFee string
	Margin        string
	MinAmount     string
	MaxAmount     string
	IsDefault     bool
	Priority      int
}

var countries = []seedCountry{
	{"US", "United States", "USD"},
	{"FR", "France", "EUR"},
	{"CI", "Cote d'Ivoire", "XOF"},
	{"SN", "Senegal", "XOF"},
	{"CM", "Cameroon", "XAF"},
	{"NG", "Nigeria", "NGN"},
}

var paymentMethods = []seedMethod{
	{"Orange Money", "MOBILE_MONEY"},
	{"Wave", "MOBILE_MONEY"},
	{"MTN Mobile Money", "MOBILE_MONEY"},
	{"Flutterwave", "FLUTTERWAVE"},
	{"CinetPay", "CINETPAY"},
	{"Bank Transfer", "BANK_TRANSFER"},
}

var countryMethods = []seedCorridorMethod{
	{"US", "Bank Transfer", "10", "", "250000"},
	{"US", "Flutterwave", "5", "5000", "40000"},
	{"FR", "Bank Transfer", "10", "", "180000"},
	{"FR", "Wave", "1", "2000", "15000"},
	{"CI", "Orange Money", "500", "1500000", "25000000"},
	{"CI", "Wave", "100", "2000000", "40000000"},
	{"CI", "MTN Mobile Money", "500", "1000000", "8000000"},
	{"CI", "CinetPay", "1000", "", "12000000"},
	{"SN", "Orange Money", "500", "1500000", "18000000"},
	{"SN", "Wave", "100", "2000000", "30000000"},
	{"CM", "MTN Mobile Money", "500", "1000000", "9000000"},
	{"CM", "Orange Money", "500", "1000000", "0"},
	{"NG", "Flutterwave", "1000", "", "60000000"},
	{"NG", "Bank Transfer", "5000", "", "90000000"},
}

var transferRates = []seedRate{
	{Scope: "global", BaseFee: "5", PercentageFee: "2", Margin: "1", IsDefault: true},
	{Scope: "country", Country: "FR", BaseFee: "3", PercentageFee: "1.5", Margin: "0.8", Priority: 1},
	{Scope: "country", Country: "NG", BaseFee: "2500", PercentageFee: "2.5", Margin: "1.5", MinAmount: "5000"},
	{Scope: "corridor", Sender: "FR", Receiver: "CI", BaseFee: "2", PercentageFee: "1", Margin: "0.5", Priority: 2},
	{Scope: "corridor", Sender: "US", Receiver: "NG", BaseFee: "4", PercentageFee: "1.8", Margin: "1.2", MaxAmount: "10000"},
	{Scope: "corridor", Sender: "CI", Receiver: "SN", BaseFee: "500", PercentageFee: "1"},
}

var marketRates = []struct {
	From string
	To   string
	Rate string
}{
	{"USD", "XOF", "605.25"},
	{"USD", "XAF", "605.25"},
	{"USD", "NGN", "1545.50"},
	{"USD", "EUR", "0.9227"},
	{"EUR", "XOF", "655.957"},
	{"EUR", "XAF", "655.957"},
	{"EUR", "NGN", "1675.10"},
	{"XOF", "XAF", "1"},
	{"XOF", "NGN", "2.5535"},
}

var defaultSettings = map[string]string{
	"fee_currency":      "USD",
	"transfers_enabled": "true",
}

func SeedData(ctx context.Context, pool *pgxpool.Pool) error {
	// Check if data already exists (idempotency)
	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM countries").Scan(&count)
	if err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if count > 0 {
		log.Info().Msg("seed data already exists, skipping")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	countryIDs := make(map[string]int64, len(countries))
	for _, c := range countries {
		var id int64
		err := tx.QueryRow(ctx,
			"INSERT INTO countries (code, name, currency_code) VALUES ($1, $2, $3) RETURNING id",
			c.Code, c.Name, c.Currency).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert country %s: %w", c.Code, err)
		}
		countryIDs[c.Code] = id
	}
	log.Info().Int("count", len(countryIDs)).Msg("inserted countries")

	methodIDs := make(map[string]int64, len(paymentMethods))
	for _, pm := range paymentMethods {
		var id int64
		err := tx.QueryRow(ctx,
			"INSERT INTO payment_methods (name, type) VALUES ($1, $2) RETURNING id",
			pm.Name, pm.Type).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert payment method %s: %w", pm.Name, err)
		}
		methodIDs[pm.Name] = id
	}
	log.Info().Int("count", len(methodIDs)).Msg("inserted payment methods")

	walletIDs := make(map[string]int64, len(countries))
	for _, c := range countries {
		var id int64
		err := tx.QueryRow(ctx,
			"INSERT INTO wallets (country_id) VALUES ($1) RETURNING id",
			countryIDs[c.Code]).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert wallet %s: %w", c.Code, err)
		}
		walletIDs[c.Code] = id
	}

	for _, cm := range countryMethods {
		if err := insertCountryMethod(ctx, tx, cm, countryIDs, methodIDs, walletIDs); err != nil {
			return err
		}
	}

	// Aggregate balances follow the sub-wallets they were funded from.
	_, err = tx.Exec(ctx, `
		UPDATE wallets w SET balance = s.total
		FROM (SELECT wallet_id, SUM(balance) AS total FROM sub_wallets GROUP BY wallet_id) s
		WHERE s.wallet_id = w.id`)
	if err != nil {
		return fmt.Errorf("sync wallet balances: %w", err)
	}
	log.Info().Int("count", len(countryMethods)).Msg("inserted funded country payment methods")

	for _, r := range transferRates {
		if err := insertRate(ctx, tx, r, countryIDs); err != nil {
			return err
		}
	}
	log.Info().Int("count", len(transferRates)).Msg("inserted transfer rates")

	for _, mr := range marketRates {
		_, err := tx.Exec(ctx,
			"INSERT INTO market_rates (from_currency, to_currency, rate) VALUES ($1, $2, $3)",
			mr.From, mr.To, decimal.RequireFromString(mr.Rate))
		if err != nil {
			return fmt.Errorf("insert market rate %s/%s: %w", mr.From, mr.To, err)
		}
	}
	log.Info().Int("count", len(marketRates)).Msg("inserted market rates")

	for key, value := range defaultSettings {
		_, err := tx.Exec(ctx,
			"INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING",
			key, value)
		if err != nil {
			return fmt.Errorf("insert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed data: %w", err)
	}

	log.Info().Msg("seed data committed")
	return nil
}

func insertCountryMethod(ctx context.Context, tx pgx.Tx, cm seedCorridorMethod, countryIDs, methodIDs, walletIDs map[string]int64) error {
	maxAmount := decimal.NullDecimal{}
	if cm.Max != "" {
		maxAmount = decimal.NewNullDecimal(decimal.RequireFromString(cm.Max))
	}

	var cpmID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO country_payment_methods (country_id, payment_method_id, min_amount, max_amount)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		countryIDs[cm.Country], methodIDs[cm.Method], decimal.RequireFromString(cm.Min), maxAmount).Scan(&cpmID)
	if err != nil {
		return fmt.Errorf("insert country payment method %s-%s: %w", cm.Country, cm.Method, err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO sub_wallets (wallet_id, country_payment_method_id, balance) VALUES ($1, $2, $3)",
		walletIDs[cm.Country], cpmID, decimal.RequireFromString(cm.Balance))
	if err != nil {
		return fmt.Errorf("insert sub-wallet %s-%s: %w", cm.Country, cm.Method, err)
	}
	return nil
}

func insertRate(ctx context.Context, tx pgx.Tx, r seedRate, countryIDs map[string]int64) error {
	var countryID, senderID, receiverID *int64
	if r.Country != "" {
		id := countryIDs[r.Country]
		countryID = &id
	}
	if r.Sender != "" {
		s, rc := countryIDs[r.Sender], countryIDs[r.Receiver]
		senderID, receiverID = &s, &rc
	}

	minAmount := decimal.Zero
	if r.MinAmount != "" {
		minAmount = decimal.RequireFromString(r.MinAmount)
	}
	maxAmount := decimal.NullDecimal{}
	if r.MaxAmount != "" {
		maxAmount = decimal.NewNullDecimal(decimal.RequireFromString(r.MaxAmount))
	}
	margin := decimal.Zero
	if r.Margin != "" {
		margin = decimal.RequireFromString(r.Margin)
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO transfer_rates
			(scope, country_id, sender_country_id, receiver_country_id, base_fee, percentage_fee,
			 min_amount, max_amount, exchange_rate_margin, is_default, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.Scope, countryID, senderID, receiverID,
		decimal.RequireFromString(r.BaseFee), decimal.RequireFromString(r.PercentageFee),
		minAmount, maxAmount, margin, r.IsDefault, r.Priority)
	if err != nil {
		return fmt.Errorf("insert %s transfer rate: %w", r.Scope, err)
	}
	return nil
}
