package model

import "time"

// Config is the single immutable configuration passed through the pipeline.
// Components receive the sections they need by value.
type Config struct {
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Embeddings EmbeddingConfig  `yaml:"embeddings" mapstructure:"embeddings"`
	Index      IndexConfig      `yaml:"index" mapstructure:"index"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" mapstructure:"retrieval"`
	Ranking    RankingConfig    `yaml:"ranking" mapstructure:"ranking"`
	Ingestion  IngestionConfig  `yaml:"ingestion" mapstructure:"ingestion"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures the completion service
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelayMs  int     `yaml:"retry_base_delay_ms" mapstructure:"retry_base_delay_ms"`
}

// EmbeddingConfig configures the embedding client
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// IndexConfig selects the vector index backend and its namespaces
type IndexConfig struct {
	Backend            string `yaml:"backend" mapstructure:"backend"` // memory, sqlite, postgres
	DSN                string `yaml:"-" mapstructure:"dsn"`
	SQLitePath         string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	InterviewNamespace string `yaml:"interview_namespace" mapstructure:"interview_namespace"`
	DocumentNamespace  string `yaml:"document_namespace" mapstructure:"document_namespace"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RetrievalConfig tunes candidate retrieval
type RetrievalConfig struct {
	CandidateMultiplier int           `yaml:"candidate_multiplier" mapstructure:"candidate_multiplier"`
	EmbedTimeout        time.Duration `yaml:"embed_timeout" mapstructure:"embed_timeout"`
	QueryTimeout        time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`
	DedupeTimeout       time.Duration `yaml:"dedupe_timeout" mapstructure:"dedupe_timeout"`
	UpsertTimeout       time.Duration `yaml:"upsert_timeout" mapstructure:"upsert_timeout"`
	MaxRetries          int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelay      time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// QualityWeights are the hand-tuned quote quality heuristics
type QualityWeights struct {
	SweetSpotMin    int     `yaml:"sweet_spot_min" mapstructure:"sweet_spot_min"`
	SweetSpotMax    int     `yaml:"sweet_spot_max" mapstructure:"sweet_spot_max"`
	ShortWords      int     `yaml:"short_words" mapstructure:"short_words"`
	LongWords       int     `yaml:"long_words" mapstructure:"long_words"`
	LengthCredit    float64 `yaml:"length_credit" mapstructure:"length_credit"`
	LengthPenalty   float64 `yaml:"length_penalty" mapstructure:"length_penalty"`
	SpecificityStep float64 `yaml:"specificity_step" mapstructure:"specificity_step"`
	SpecificityCap  float64 `yaml:"specificity_cap" mapstructure:"specificity_cap"`
	BuzzwordStep    float64 `yaml:"buzzword_step" mapstructure:"buzzword_step"`
	BuzzwordCap     float64 `yaml:"buzzword_cap" mapstructure:"buzzword_cap"`
	ExampleCredit   float64 `yaml:"example_credit" mapstructure:"example_credit"`
	GenericPenalty  float64 `yaml:"generic_penalty" mapstructure:"generic_penalty"`
	FillerStep      float64 `yaml:"filler_step" mapstructure:"filler_step"`
	FillerCap       float64 `yaml:"filler_cap" mapstructure:"filler_cap"`
	DelegationBonus float64 `yaml:"delegation_bonus" mapstructure:"delegation_bonus"`
}

// DiversityConfig tunes the speaker/source discount
type DiversityConfig struct {
	SpeakerFactor float64 `yaml:"speaker_factor" mapstructure:"speaker_factor"`
	SourceFactor  float64 `yaml:"source_factor" mapstructure:"source_factor"`
}

// RelevanceWeights are the points each attribute heuristic contributes to
// the 0–3 relevance scale
type RelevanceWeights struct {
	Executive      float64 `yaml:"executive" mapstructure:"executive"`
	Management     float64 `yaml:"management" mapstructure:"management"`
	Practitioner   float64 `yaml:"practitioner" mapstructure:"practitioner"`
	Decision       float64 `yaml:"decision" mapstructure:"decision"`
	RoleMention    float64 `yaml:"role_mention" mapstructure:"role_mention"`
	SizeNumber     float64 `yaml:"size_number" mapstructure:"size_number"`
	SizeDescriptor float64 `yaml:"size_descriptor" mapstructure:"size_descriptor"`
	Revenue        float64 `yaml:"revenue" mapstructure:"revenue"`
	Term           float64 `yaml:"term" mapstructure:"term"`
	TermCap        float64 `yaml:"term_cap" mapstructure:"term_cap"`
	Signal         float64 `yaml:"signal" mapstructure:"signal"`
	BroadMatch     float64 `yaml:"broad_match" mapstructure:"broad_match"`
}

// DefaultRelevanceWeights returns the built-in relevance points
func DefaultRelevanceWeights() RelevanceWeights {
	return RelevanceWeights{
		Executive:      2,
		Management:     1.5,
		Practitioner:   1,
		Decision:       1,
		RoleMention:    0.5,
		SizeNumber:     2,
		SizeDescriptor: 1,
		Revenue:        1,
		Term:           1,
		TermCap:        2,
		Signal:         1,
		BroadMatch:     0.5,
	}
}

// SeniorityVocabulary lists the role terms per seniority tier. An empty
// tier keeps the built-in terms.
type SeniorityVocabulary struct {
	Executive    []string `yaml:"executive,omitempty" mapstructure:"executive"`
	Management   []string `yaml:"management,omitempty" mapstructure:"management"`
	Practitioner []string `yaml:"practitioner,omitempty" mapstructure:"practitioner"`
}

// RankingConfig is the externally tunable ranking surface
type RankingConfig struct {
	TopK                    int                       `yaml:"top_k" mapstructure:"top_k"`
	MaxTopK                 int                       `yaml:"max_top_k" mapstructure:"max_top_k"`
	MinQualityScore         float64                   `yaml:"min_quality_score" mapstructure:"min_quality_score"`
	MinSimilarityScore      float64                   `yaml:"min_similarity_score" mapstructure:"min_similarity_score"`
	DefaultMinRelevance     float64                   `yaml:"default_min_relevance" mapstructure:"default_min_relevance"`
	MinRelevanceByAttribute map[AttributeType]float64 `yaml:"min_relevance_by_attribute" mapstructure:"min_relevance_by_attribute"`
	EnableLLMJustification  bool                      `yaml:"enable_llm_justification" mapstructure:"enable_llm_justification"`
	EnableRelevanceBoost    bool                      `yaml:"enable_relevance_boost" mapstructure:"enable_relevance_boost"`
	SimilarityWeight        float64                   `yaml:"similarity_weight" mapstructure:"similarity_weight"`
	RelevanceWeight         float64                   `yaml:"relevance_weight" mapstructure:"relevance_weight"`
	Quality                 QualityWeights            `yaml:"quality" mapstructure:"quality"`
	Diversity               DiversityConfig           `yaml:"diversity" mapstructure:"diversity"`
	Relevance               RelevanceWeights          `yaml:"relevance" mapstructure:"relevance"`
	Seniority               SeniorityVocabulary       `yaml:"seniority" mapstructure:"seniority"`
}

// MinRelevance returns the keep threshold for an attribute
func (r RankingConfig) MinRelevance(t AttributeType) float64 {
	if v, ok := r.MinRelevanceByAttribute[t]; ok {
		return v
	}
	return r.DefaultMinRelevance
}

// ClampTopK applies the default and the configured ceiling
func (r RankingConfig) ClampTopK(k int) int {
	if k <= 0 {
		k = r.TopK
	}
	if k <= 0 {
		k = 5
	}
	if r.MaxTopK > 0 && k > r.MaxTopK {
		k = r.MaxTopK
	}
	return k
}

// IngestionConfig tunes the transcript ingestion pipeline
type IngestionConfig struct {
	Concurrency       int           `yaml:"concurrency" mapstructure:"concurrency"`
	ChunkSize         int           `yaml:"chunk_size" mapstructure:"chunk_size"`
	MinChunkLength    int           `yaml:"min_chunk_length" mapstructure:"min_chunk_length"`
	MinQuoteLength    int           `yaml:"min_quote_length" mapstructure:"min_quote_length"`
	MinSpecificity    int           `yaml:"min_specificity" mapstructure:"min_specificity"`
	QuotesPerChunk    int           `yaml:"quotes_per_chunk" mapstructure:"quotes_per_chunk"`
	ClassifyBatchSize int           `yaml:"classify_batch_size" mapstructure:"classify_batch_size"`
	CompletionTimeout time.Duration `yaml:"completion_timeout" mapstructure:"completion_timeout"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	BatchTimeout      time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	DedupeCheck       bool          `yaml:"dedupe_check" mapstructure:"dedupe_check"`
	Topics            []string      `yaml:"topics" mapstructure:"topics"`
}

// LoggingConfig configures zerolog output
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeQuotes bool `yaml:"include_quotes" mapstructure:"include_quotes"`
}

// DefaultConfig returns the starting defaults for every tunable
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "", // Disabled by default
			Timeout:           60,
			MaxTokens:         1500,
			Temperature:       0.2,
			RequestsPerSecond: 2,
			Burst:             4,
			MaxRetries:        2,
			RetryBaseDelayMs:  1000,
		},
		Embeddings: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			Timeout:   30,
		},
		Index: IndexConfig{
			Backend:            "sqlite",
			SQLitePath:         "~/.vouch/index.db",
			InterviewNamespace: "interviews",
			DocumentNamespace:  "documents",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			Dir:       "~/.vouch/cache",
			DiskTTL:   7 * 24 * time.Hour,
		},
		Retrieval: RetrievalConfig{
			CandidateMultiplier: 5,
			EmbedTimeout:        30 * time.Second,
			QueryTimeout:        30 * time.Second,
			DedupeTimeout:       2 * time.Second,
			UpsertTimeout:       60 * time.Second,
			MaxRetries:          2,
			RetryBaseDelay:      500 * time.Millisecond,
		},
		Ranking: RankingConfig{
			TopK:                5,
			MaxTopK:             20,
			MinQualityScore:     0.1,
			MinSimilarityScore:  0.2,
			DefaultMinRelevance: 1.0,
			MinRelevanceByAttribute: map[AttributeType]float64{
				AttrBuyerTitles:       0.5,
				AttrCompanySize:       0.5,
				AttrTriggers:          1.0,
				AttrBarriers:          1.0,
				AttrMessagingEmphasis: 1.0,
				AttrPainPoints:        1.5,
				AttrDesiredOutcomes:   1.5,
			},
			EnableLLMJustification: true,
			EnableRelevanceBoost:   true,
			SimilarityWeight:       0.7,
			RelevanceWeight:        0.3,
			Quality: QualityWeights{
				SweetSpotMin:    15,
				SweetSpotMax:    40,
				ShortWords:      8,
				LongWords:       60,
				LengthCredit:    0.3,
				LengthPenalty:   0.2,
				SpecificityStep: 0.1,
				SpecificityCap:  0.4,
				BuzzwordStep:    0.1,
				BuzzwordCap:     0.3,
				ExampleCredit:   0.2,
				GenericPenalty:  0.2,
				FillerStep:      0.05,
				FillerCap:       0.15,
				DelegationBonus: 0.2,
			},
			Diversity: DiversityConfig{
				SpeakerFactor: 0.7,
				SourceFactor:  0.8,
			},
			Relevance: DefaultRelevanceWeights(),
		},
		Ingestion: IngestionConfig{
			Concurrency:       5,
			ChunkSize:         2000,
			MinChunkLength:    200,
			MinQuoteLength:    MinQuoteLength + 1,
			MinSpecificity:    3,
			QuotesPerChunk:    3,
			ClassifyBatchSize: 3,
			CompletionTimeout: 60 * time.Second,
			MaxRetries:        2,
			RetryBaseDelay:    time.Second,
			BatchTimeout:      10 * time.Minute,
			DedupeCheck:       true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Output: OutputConfig{
			IncludeQuotes: true,
		},
	}
}
