package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"replacy/internal/annotate"
	"replacy/internal/customforms"
	"replacy/internal/hooks"
	"replacy/internal/inflect"
	"replacy/internal/replacer"
	"replacy/internal/rules"
	"replacy/pkg/options"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	redisAddr := getenv("REDIS_ADDR", "localhost:6379")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	forms := customforms.New(client, 0, logger)

	stores := []inflect.FormStore{forms}
	if path := os.Getenv("FORMS_PATH"); path != "" {
		store, err := inflect.LoadForms(path)
		if err != nil {
			logger.Fatal("load forms", zap.String("path", path), zap.Error(err))
		}
		stores = append(stores, store)
	}
	if path := os.Getenv("FORMS_TABLE_PATH"); path != "" {
		store, err := inflect.OpenMmap(path)
		if err != nil {
			logger.Fatal("open forms table", zap.String("path", path), zap.Error(err))
		}
		defer store.Close()
		stores = append(stores, inflect.NewCached(store))
	}
	inflector := inflect.NewEngine(logger, stores...)

	rulesPath := getenv("RULES_PATH", "rules.json")
	set, err := rules.LoadFile(rulesPath)
	if err != nil {
		logger.Fatal("load rules", zap.String("path", rulesPath), zap.Error(err))
	}

	lexicon := map[string]annotate.Analysis{}
	if path := os.Getenv("LEXICON_PATH"); path != "" {
		lexicon, err = annotate.LoadLexicon(path)
		if err != nil {
			logger.Fatal("load lexicon", zap.String("path", path), zap.Error(err))
		}
	}
	annotator := annotate.NewSimple(lexicon)

	opts := []options.Options{options.WithLogger(logger)}
	if getEnvInt("ALLOW_MULTIPLE_WHITESPACES", 0) != 0 {
		opts = append(opts, options.WithMultipleWhitespaces())
	}
	if getEnvInt("FILTER_ZERO_DISTANCE", 0) != 0 {
		opts = append(opts, options.WithZeroDistanceFilter())
	}

	rm, err := replacer.New(set, hooks.NewRegistry(), inflector, annotator, opts...)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	logger.Info("rules compiled", zap.Int("count", set.Len()))

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/check", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		spans, err := rm.Check(req.Text)
		if err != nil {
			logger.Error("check failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"text":  req.Text,
			"spans": spans,
		})
	})

	mux.HandleFunc("/api/v1/custom-form", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Lemma string `json:"lemma"`
			Tag   string `json:"tag"`
			Form  string `json:"form"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
			req.Lemma == "" || req.Tag == "" || req.Form == "" {
			writeError(w, http.StatusBadRequest, "lemma, tag and form are required")
			return
		}
		if err := forms.Add(r.Context(), req.Lemma, req.Tag, req.Form); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/v1/custom-form/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/v1/custom-form/")
		lemma, tag, ok := strings.Cut(rest, "/")
		if !ok || lemma == "" || tag == "" {
			writeError(w, http.StatusBadRequest, "lemma and tag are required")
			return
		}
		if err := forms.Remove(r.Context(), lemma, tag); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	handler := cors.Default().Handler(mux)
	addr := getenv("HTTP_ADDR", ":8080")
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}
