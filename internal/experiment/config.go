package experiment

// Config는 실험(피처/폴드/시뮬레이션)의 전체 설정
// ⭐ SSOT: 실험 파라미터는 이 YAML 구조체에서만 정의
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Features   Features   `yaml:"features" json:"features"`
	Splits     Splits     `yaml:"splits" json:"splits"`
	Simulation Simulation `yaml:"simulation" json:"simulation"`
	Data       Data       `yaml:"data" json:"data"`
}

// Meta 메타 정보
type Meta struct {
	ExperimentID string `yaml:"experiment_id" json:"experiment_id" validate:"required"`
	Version      string `yaml:"version" json:"version" default:"v1"`
	Description  string `yaml:"description" json:"description"`
}

// Universe 고정 종목 유니버스 (K = Size)
type Universe struct {
	Size    int      `yaml:"size" json:"size" validate:"gt=0"`
	Tickers []string `yaml:"tickers" json:"tickers" validate:"required,dive,required"`
}

// Features 피처 엔지니어링
type Features struct {
	Window             int     `yaml:"window" json:"window" default:"7" validate:"gt=0"`
	SentimentThreshold float64 `yaml:"sentiment_threshold" json:"sentiment_threshold" default:"0.1" validate:"gte=0"`
	PriceField         string  `yaml:"price_field" json:"price_field" default:"open" validate:"oneof=open high low close"`
	Workers            int     `yaml:"workers" json:"workers" default:"4" validate:"gte=0"`
}

// Splits walk-forward 경계 (YYYY-MM-DD)
type Splits struct {
	TestCutoff string   `yaml:"test_cutoff" json:"test_cutoff" validate:"required,datetime=2006-01-02"`
	Boundaries []string `yaml:"boundaries" json:"boundaries" validate:"min=2,dive,datetime=2006-01-02"`
}

// Simulation 포트폴리오 시뮬레이션
type Simulation struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" default:"1" validate:"gt=0"`
	MissingPolicy  string  `yaml:"missing_policy" json:"missing_policy" default:"flat" validate:"oneof=flat strict"`
}

// Data 원천 데이터 조회 기간 (비어 있으면 전체)
type Data struct {
	From string `yaml:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `yaml:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}
