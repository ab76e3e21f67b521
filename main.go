package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	argon2 "github.com/andskur/argon2-hashing"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/gormzerologger"
	authhandler "sitepulse/internal/handlers/auth"
	cmshandler "sitepulse/internal/handlers/cms"
	contacthandler "sitepulse/internal/handlers/contact"
	crmhandler "sitepulse/internal/handlers/crm"
	dumphandler "sitepulse/internal/handlers/dump"
	statshandler "sitepulse/internal/handlers/stats"
	trackhandler "sitepulse/internal/handlers/track"
	uploadhandler "sitepulse/internal/handlers/upload"
	"sitepulse/internal/models/spcaptcha"
	"sitepulse/internal/models/spcms"
	"sitepulse/internal/models/spcrm"
	"sitepulse/internal/models/spdump"
	"sitepulse/internal/models/spgeo"
	"sitepulse/internal/models/spmail"
	"sitepulse/internal/models/sptrack"
	"sitepulse/internal/spconfig"
	"sitepulse/internal/splog"
	"sitepulse/internal/spmiddleware"
)

const VERSION string = "0.3.0"

var BuildID string

var configuration *spconfig.Config

func parseCommandLineArgs() (configFile string, shouldCreateExample bool, versionDisplay bool, err error) {
	var config = flag.String("config", "", "YAML configuration file")
	var example = flag.Bool("example", false, "create an example configuration file")
	var version = flag.Bool("version", false, "print the version")
	flag.Parse()

	if *version {
		return "", false, true, nil
	}

	if *example {
		return "", true, false, nil
	}

	if *config == "" {
		return "", false, false, fmt.Errorf("configuration file required")
	}

	return *config, false, false, nil
}

func initConfiguration() {
	configFile, shouldCreateExample, versionDisplay, err := parseCommandLineArgs()
	if err != nil {
		fmt.Println("Usage:")
		fmt.Println("  sitepulse -config sitepulse.yaml")
		fmt.Println("  sitepulse -example  (create an example file)")
		fmt.Println("  sitepulse -version  (print the version)")
		os.Exit(1)
	}

	if versionDisplay {
		println(VERSION)
		os.Exit(0)
	}

	spconfig.CreateExample(shouldCreateExample, configFile)

	conf, err := spconfig.LoadConfig(configFile)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	// On the first start the plain password from the config is hashed and
	// the file rewritten with only the hash.
	if conf.User.Pass != "" {
		if len(conf.User.Pass) < 8 {
			fmt.Println("❌ password must be at least 8 characters")
			os.Exit(1)
		}
		hash, err := argon2.GenerateFromPassword([]byte(conf.User.Pass), argon2.DefaultParams)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		conf.User.Hash = string(hash)
		conf.User.Pass = ""
		if err := spconfig.WriteConfigYaml(configFile, conf); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	}

	configuration = conf
}

func initDatabase() *gorm.DB {
	level := "warn"
	if configuration.Logger.Level == "debug" || !configuration.Production {
		level = "trace"
	}

	var db *gorm.DB
	var err error
	switch configuration.Database.Db {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(configuration.Database.Path), &gorm.Config{
			Logger: gormzerologger.New(level),
		})
	case "mysql":
		db, err = gorm.Open(mysql.Open(configuration.Database.Dsn), &gorm.Config{
			Logger: gormzerologger.New(level),
		})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	err = db.AutoMigrate(
		&spgeo.IPInfo{},
		&sptrack.VisitorSession{},
		&sptrack.PageView{},
		&sptrack.DailyStat{},
		&spcms.Page{},
		&spcms.PageTranslation{},
		&spcms.ContentBlock{},
		&spcms.ContentBlockTranslation{},
		&spcms.Service{},
		&spcms.ServiceTranslation{},
		&spcrm.Company{},
		&spcrm.Contact{},
		&spcrm.Deal{},
		&spcrm.Task{},
		&spcrm.Activity{},
		&spmail.ContactSubmission{},
		&spmail.EmailSettings{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	return db
}

func newRedisClient() *redis.Client {
	if configuration.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: configuration.Redis.Addr,
		DB:   configuration.Redis.Db,
	})
}

func newServer() *gin.Engine {
	if configuration.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if configuration.TrustedProxies != nil {
		r.SetTrustedProxies(configuration.TrustedProxies)
	}
	if configuration.TrustedPlatform != "" {
		switch configuration.TrustedPlatform {
		case "cloudflare":
			r.TrustedPlatform = gin.PlatformCloudflare
		case "google":
			r.TrustedPlatform = gin.PlatformGoogleAppEngine
		case "flyio":
			r.TrustedPlatform = gin.PlatformFlyIO
		default:
			r.TrustedPlatform = configuration.TrustedPlatform
		}
	}

	return r
}

func setRoutes(r *gin.Engine, db *gorm.DB, redisClient *redis.Client, tracker *sptrack.Tracker, mailer *spmail.Mailer) {
	trackLimiter := spmiddleware.NewTrackLimiter(int64(configuration.Tracking.RateLimit), time.Minute)
	loginLimiter := spmiddleware.NewLimiter(5, time.Minute)

	captchas := spcaptcha.New(redisClient)
	cms := spcms.New(db)
	crm := spcrm.New(db)

	trackH := trackhandler.New(tracker, trackLimiter)
	statsH := statshandler.New(tracker)
	cmsH := cmshandler.New(cms)
	crmH := crmhandler.New(crm)
	contactH := contacthandler.New(mailer, captchas, configuration.Production)
	dumpH := dumphandler.New(spdump.New(db))
	uploadH := uploadhandler.New(configuration.StaticPath)
	authH := authhandler.New(configuration.User)

	r.Static("/static/", configuration.StaticPath)

	// Public API
	r.POST("/api/track", trackH.Track)
	r.GET("/track.js", trackH.Script)
	r.GET("/api/pages/:slug", cmsH.GetPage)
	r.GET("/api/services", cmsH.ListServices)
	r.GET("/api/services/:slug", cmsH.GetService)
	r.GET("/api/captcha", contactH.Captcha)
	r.POST("/api/contact", contactH.Submit)

	// Authentication
	r.POST("/admin/login", loginLimiter, authH.Login)
	r.POST("/admin/logout", authH.Logout)

	// Protected admin API
	admin := r.Group("/admin/api")
	admin.Use(spmiddleware.AuthRequired())
	{
		admin.GET("/stats/overview", statsH.Overview)
		admin.GET("/stats/daily", statsH.Daily)
		admin.GET("/stats/pages", statsH.TopPages)
		admin.GET("/stats/referers", statsH.TopReferers)
		admin.GET("/stats/visitors", statsH.Visitors)
		admin.GET("/stats/realtime", statsH.Realtime)

		admin.GET("/pages", cmsH.AdminListPages)
		admin.POST("/pages", cmsH.AdminCreatePage)
		admin.PUT("/pages/:id", cmsH.AdminUpdatePage)
		admin.DELETE("/pages/:id", cmsH.AdminDeletePage)
		admin.PUT("/pages/:id/translations", cmsH.AdminUpsertTranslation)
		admin.POST("/blocks", cmsH.AdminCreateBlock)
		admin.PUT("/blocks/:id", cmsH.AdminUpdateBlock)
		admin.DELETE("/blocks/:id", cmsH.AdminDeleteBlock)
		admin.GET("/services", cmsH.AdminListServices)
		admin.POST("/services", cmsH.AdminCreateService)
		admin.PUT("/services/:id", cmsH.AdminUpdateService)
		admin.DELETE("/services/:id", cmsH.AdminDeleteService)
		admin.POST("/services/reorder", cmsH.AdminReorderServices)

		admin.GET("/crm/companies", crmH.ListCompanies)
		admin.GET("/crm/companies/:id", crmH.GetCompany)
		admin.POST("/crm/companies", crmH.CreateCompany)
		admin.PUT("/crm/companies/:id", crmH.UpdateCompany)
		admin.DELETE("/crm/companies/:id", crmH.DeleteCompany)
		admin.GET("/crm/contacts", crmH.ListContacts)
		admin.POST("/crm/contacts", crmH.CreateContact)
		admin.PUT("/crm/contacts/:id", crmH.UpdateContact)
		admin.DELETE("/crm/contacts/:id", crmH.DeleteContact)
		admin.GET("/crm/deals", crmH.ListDeals)
		admin.GET("/crm/deals/:id", crmH.GetDeal)
		admin.POST("/crm/deals", crmH.CreateDeal)
		admin.PUT("/crm/deals/:id", crmH.UpdateDeal)
		admin.DELETE("/crm/deals/:id", crmH.DeleteDeal)
		admin.POST("/crm/deals/:id/activities", crmH.AddActivity)
		admin.DELETE("/crm/activities/:id", crmH.DeleteActivity)
		admin.GET("/crm/tasks", crmH.ListTasks)
		admin.POST("/crm/tasks", crmH.CreateTask)
		admin.PUT("/crm/tasks/:id", crmH.UpdateTask)
		admin.DELETE("/crm/tasks/:id", crmH.DeleteTask)

		admin.GET("/contact/submissions", contactH.Submissions)
		admin.GET("/contact/settings", contactH.GetSettings)
		admin.PUT("/contact/settings", contactH.UpdateSettings)

		admin.POST("/dump", dumpH.Generate)
		admin.GET("/dump", dumpH.Generate)
		admin.GET("/dump/tables", dumpH.Tables)

		admin.POST("/upload/image", uploadH.Image)
	}
}

func startServer(r *gin.Engine) {
	log.Info().Msgf("Website started on http://%s", configuration.Listen.Website)
	log.Info().Msgf("Admin: http://%s/admin/login", configuration.Listen.Website)
	r.Run(configuration.Listen.Website)
}

func main() {
	if BuildID == "" {
		BuildID = VERSION
	}

	initConfiguration()
	splog.InitLogger(configuration.Logger, configuration.Production)

	db := initDatabase()
	redisClient := newRedisClient()

	geo, err := spgeo.NewResolver(db, configuration.Geo.IPInfoToken, configuration.Geo.MMDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("geolocation setup failed")
	}
	defer geo.Close()

	tracker := sptrack.NewTracker(db, redisClient, geo, configuration.Tracking.RetentionDays)
	defer tracker.Stop()

	mailer := spmail.New(db, spmail.NewResendClient(configuration.Mail.ResendKey))
	if err := mailer.EnsureSettings(context.Background()); err != nil {
		log.Error().Err(err).Msg("email settings seed failed")
	}

	r := newServer()
	spmiddleware.InitMiddleware(r, configuration.Production)
	setRoutes(r, db, redisClient, tracker, mailer)

	startServer(r)
}
