package cmd

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Laisky/multilingual-news/internal/library/llm"
	"github.com/Laisky/multilingual-news/internal/library/translate"
	"github.com/Laisky/multilingual-news/internal/web"
	"github.com/Laisky/multilingual-news/internal/web/news/controller"
	"github.com/Laisky/multilingual-news/internal/web/news/dao"
	"github.com/Laisky/multilingual-news/internal/web/news/service"
	"github.com/Laisky/multilingual-news/library/blob"
	"github.com/Laisky/multilingual-news/library/db/mongo"
	"github.com/Laisky/multilingual-news/library/db/redis"
	"github.com/Laisky/multilingual-news/library/jwt"
	"github.com/Laisky/multilingual-news/library/log"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `multilingual news REST API`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := runAPI(ctx); err != nil {
			log.Logger.Panic("run api", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

// backends every connection a command needs
type backends struct {
	mongo mongo.DB
	dao   *dao.News
	redis *redis.DB
	blobs *blob.Store
}

func (b *backends) Close(ctx context.Context) {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if b.mongo != nil {
		if err := b.mongo.Close(ctx); err != nil {
			log.Logger.Warn("close mongo", zap.Error(err))
		}
	}
}

func setupBackends(ctx context.Context) (*backends, error) {
	db, err := mongo.NewDB(ctx, mongo.DialInfo{
		URI:    gconfig.Shared.GetString("settings.db.news.uri"),
		Addr:   gconfig.Shared.GetString("settings.db.news.addr"),
		DBName: stringOr(gconfig.Shared.GetString("settings.db.news.db"), "news"),
		User:   gconfig.Shared.GetString("settings.db.news.user"),
		Pwd:    gconfig.Shared.GetString("settings.db.news.pwd"),
		AuthDB: gconfig.Shared.GetString("settings.db.news.auth_db"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}

	b := &backends{
		mongo: db,
		dao:   dao.New(log.Logger.Named("dao"), db),
	}

	if addr := gconfig.Shared.GetString("settings.db.redis.addr"); addr != "" {
		rdb := redis.NewDB(&goredis.Options{
			Addr:     addr,
			Password: gconfig.Shared.GetString("settings.db.redis.pwd"),
			DB:       gconfig.Shared.GetInt("settings.db.redis.db"),
		})
		if err = rdb.Ping(ctx); err != nil {
			// views still dedupe through mongo
			log.Logger.Warn("redis unavailable, disable view fast path", zap.Error(err))
			_ = rdb.Close()
		} else {
			b.redis = rdb
		}
	}

	if endpoint := gconfig.Shared.GetString("settings.blob.endpoint"); endpoint != "" {
		store, err := blob.New(blob.Config{
			Endpoint:  endpoint,
			AccessKey: gconfig.Shared.GetString("settings.blob.access_key"),
			SecretKey: gconfig.Shared.GetString("settings.blob.secret_key"),
			Bucket:    gconfig.Shared.GetString("settings.blob.bucket"),
			UseSSL:    boolSetting("settings.blob.use_ssl", true),
			Region:    gconfig.Shared.GetString("settings.blob.region"),
			Prefix:    gconfig.Shared.GetString("settings.blob.prefix"),
			PublicURL: gconfig.Shared.GetString("settings.blob.public_url"),
		})
		if err != nil {
			b.Close(ctx)
			return nil, errors.Wrap(err, "new blob store")
		}
		b.blobs = store
	}

	return b, nil
}

// setupTranslator the machine translation chain, the API provider first then the LLM
func setupTranslator() *translate.Translator {
	cfg := translate.Config{
		ChunkSize:     gconfig.Shared.GetInt("settings.translate.chunk_size"),
		RatePerSecond: floatSetting("settings.translate.rate_per_second"),
		Burst:         gconfig.Shared.GetInt("settings.translate.burst"),
		Fanout:        gconfig.Shared.GetInt("settings.translate.fanout"),
	}
	timeout := time.Duration(gconfig.Shared.GetInt("settings.translate.timeout_seconds")) * time.Second

	var providers []translate.Provider
	if key := gconfig.Shared.GetString("settings.translate.api_key"); key != "" {
		providers = append(providers, translate.NewAPIProvider(
			gconfig.Shared.GetString("settings.translate.api_base"), key, timeout))
	}
	if key := gconfig.Shared.GetString("settings.translate.llm.api_key"); key != "" {
		cli := llm.NewClient(gconfig.Shared.GetString("settings.translate.llm.api_base"), key, timeout, nil)
		providers = append(providers, translate.NewLLMProvider(cli,
			gconfig.Shared.GetString("settings.translate.llm.model")))
	}
	if len(providers) == 0 {
		log.Logger.Warn("no translation provider configured")
	}

	return translate.New(log.Logger.Named("translate"), cfg, providers...)
}

// setupSynthesizer the speech client, it reuses the LLM credentials when tts has none
func setupSynthesizer() *translate.Synthesizer {
	base := gconfig.Shared.GetString("settings.translate.tts.api_base")
	key := gconfig.Shared.GetString("settings.translate.tts.api_key")
	if key == "" {
		base = gconfig.Shared.GetString("settings.translate.llm.api_base")
		key = gconfig.Shared.GetString("settings.translate.llm.api_key")
	}
	if key == "" {
		return nil
	}

	timeout := time.Duration(gconfig.Shared.GetInt("settings.translate.timeout_seconds")) * time.Second
	return translate.NewSynthesizer(log.Logger.Named("tts"),
		llm.NewClient(base, key, timeout, nil),
		translate.SpeechConfig{
			Model:  gconfig.Shared.GetString("settings.translate.tts.model"),
			Voices: stringMapSetting("settings.translate.tts.voices"),
			Format: gconfig.Shared.GetString("settings.translate.tts.format"),
		})
}

// setupServices build every news service on top of b
func setupServices(b *backends) (*controller.Services, error) {
	expire := time.Duration(gconfig.Shared.GetInt("settings.jwt.expire_hours")) * time.Hour
	signer, err := jwt.New([]byte(gconfig.Shared.GetString("settings.secret")), expire)
	if err != nil {
		return nil, errors.Wrap(err, "new jwt signer")
	}

	logger := log.Logger.Named("news")
	cacheTTL := time.Duration(gconfig.Shared.GetInt("settings.i18n.cache_ttl_seconds")) * time.Second
	langs := service.NewLanguages(logger.Named("languages"), b.dao,
		stringOr(gconfig.Shared.GetString("settings.i18n.default_language"), "en"), cacheTTL)
	categories := service.NewCategoryCache(b.dao, cacheTTL)

	var marker service.ViewMarker
	if b.redis != nil {
		marker = b.redis
	}
	var blobs service.BlobStore
	if b.blobs != nil {
		blobs = b.blobs
	}

	translator := setupTranslator()
	articles := service.NewArticles(logger.Named("articles"), b.dao, langs, categories)

	return &controller.Services{
		Languages:   langs,
		Users:       service.NewUsers(logger.Named("users"), b.dao, signer, langs),
		Categories:  service.NewCategories(logger.Named("categories"), b.dao, langs, categories),
		Locations:   service.NewLocations(logger.Named("locations"), b.dao, langs),
		Articles:    articles,
		Engagements: service.NewEngagements(logger.Named("engagement"), b.dao, marker),
		Comments:    service.NewComments(logger.Named("comments"), b.dao,
			boolSetting("settings.comments.auto_approve", true)),
		Uploads: service.NewUploads(logger.Named("uploads"), blobs,
			int64(gconfig.Shared.GetInt("settings.blob.max_upload_mb"))<<20),
		Translations: service.NewTranslations(logger.Named("translations"), b.dao, langs,
			translator, setupSynthesizer(), blobs),
		Scraped: service.NewScraped(logger.Named("scraped"), b.dao, articles, langs, translator),
	}, nil
}

func runAPI(ctx context.Context) error {
	b, err := setupBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close(context.Background())

	svc, err := setupServices(b)
	if err != nil {
		return err
	}

	ctl, err := controller.New(log.Logger.Named("controller"), svc, controller.Config{
		SecureCookie:  gconfig.Shared.GetBool("settings.web.secure_cookie"),
		AuthPerMinute: floatSetting("settings.auth.per_minute"),
		AuthBurst:     gconfig.Shared.GetInt("settings.auth.burst"),
	})
	if err != nil {
		return errors.Wrap(err, "new controller")
	}

	srv, err := web.NewServer(log.Logger, ctl, web.Options{
		Addr:           gconfig.Shared.GetString("listen"),
		AllowedOrigins: gconfig.Shared.GetStringSlice("settings.cors.allowed_origins"),
		Debug:          gconfig.Shared.GetBool("debug"),
	})
	if err != nil {
		return errors.Wrap(err, "new server")
	}

	if gconfig.Shared.GetBool("dry") {
		log.Logger.Info("dry run, skip serving")
		return nil
	}

	return srv.Run(ctx)
}

// boolSetting the boolean at key, fallback when unset or malformed
func boolSetting(key string, fallback bool) bool {
	if v, ok := parseStrictBool(gconfig.Shared.Get(key)); ok {
		return v
	}
	return fallback
}

// floatSetting the number at key, zero when unset or malformed
func floatSetting(key string) float64 {
	raw := gconfig.Shared.Get(key)
	if raw == nil {
		return 0
	}
	v, err := parseStrictFloat(raw)
	if err != nil {
		return 0
	}
	return v
}

// stringMapSetting the string values of the object at key
func stringMapSetting(key string) map[string]string {
	out := map[string]string{}
	for k, v := range gconfig.Shared.GetStringMap(key) {
		if s, err := parseStrictString(v); err == nil {
			out[k] = s
		}
	}
	return out
}

func stringOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
