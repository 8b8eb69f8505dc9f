package pgstore

// Config names the tables the store reads and writes. The shipped
// migrations create the default names; override these only when the
// schema is managed externally.
type Config struct {
	FeaturesTable      string `env:"PGSTORE_FEATURES_TABLE" envDefault:"features"`
	PlansTable         string `env:"PGSTORE_PLANS_TABLE" envDefault:"plans"`
	PlanFeaturesTable  string `env:"PGSTORE_PLAN_FEATURES_TABLE" envDefault:"plan_features"`
	SubscriptionsTable string `env:"PGSTORE_SUBSCRIPTIONS_TABLE" envDefault:"plan_subscriptions"`
	UsagesTable        string `env:"PGSTORE_USAGES_TABLE" envDefault:"plan_subscription_usages"`
}

// DefaultConfig returns the table names the shipped migrations create.
func DefaultConfig() Config {
	return Config{
		FeaturesTable:      "features",
		PlansTable:         "plans",
		PlanFeaturesTable:  "plan_features",
		SubscriptionsTable: "plan_subscriptions",
		UsagesTable:        "plan_subscription_usages",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FeaturesTable == "" {
		c.FeaturesTable = def.FeaturesTable
	}
	if c.PlansTable == "" {
		c.PlansTable = def.PlansTable
	}
	if c.PlanFeaturesTable == "" {
		c.PlanFeaturesTable = def.PlanFeaturesTable
	}
	if c.SubscriptionsTable == "" {
		c.SubscriptionsTable = def.SubscriptionsTable
	}
	if c.UsagesTable == "" {
		c.UsagesTable = def.UsagesTable
	}
	return c
}
