package serverconfig

import "time"

type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	HTTPServer HTTPServerConfig `yaml:"httpserver" mapstructure:"httpserver"`
	GRPCServer GRPCServerConfig `yaml:"grpcserver" mapstructure:"grpcserver"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Bundle     BundleConfig     `yaml:"bundle" mapstructure:"bundle"`
	Decode     DecodeConfig     `yaml:"decode" mapstructure:"decode"`
	Query      QueryConfig      `yaml:"query" mapstructure:"query"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type HTTPServerConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	NeedAuth bool   `yaml:"need_auth" mapstructure:"need_auth"`
	// 上传存档和长查询的读写超时，0 用默认 5 分钟
	UploadTimeout time.Duration `yaml:"upload_timeout" mapstructure:"upload_timeout"`
}

type GRPCServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

const (
	StorageMemory  = "memory"
	StorageMongoDB = "mongodb"
	StorageMySQL   = "mysql"
	StorageSQLite  = "sqlite"
)

type StorageConfig struct {
	Driver     string        `yaml:"driver" mapstructure:"driver"`
	FlushEvery time.Duration `yaml:"flush_every" mapstructure:"flush_every"`
	MySQL      MySQLConfig   `yaml:"mysql" mapstructure:"mysql"`
	MongoDB    MongoDBConfig `yaml:"mongodb" mapstructure:"mongodb"`
	SQLite     SQLiteConfig  `yaml:"sqlite" mapstructure:"sqlite"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
	ShowSQL  bool   `yaml:"show_sql" mapstructure:"show_sql"`
}

type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BundleConfig 指向规则数据清单（yaml）。
type BundleConfig struct {
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
}

type DecodeConfig struct {
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	ChunkSize   int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	Encoding    string `yaml:"encoding" mapstructure:"encoding"`
	MaxUploadMB int    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

type QueryConfig struct {
	OverseasPenalty *float64      `yaml:"overseas_penalty" mapstructure:"overseas_penalty"`
	AskTimeout      time.Duration `yaml:"ask_timeout" mapstructure:"ask_timeout"`
	MaxSessions     int           `yaml:"max_sessions" mapstructure:"max_sessions"`
	// SessionIdle>0 时空闲超过该时长的存档会话被回收
	SessionIdle     time.Duration `yaml:"session_idle" mapstructure:"session_idle"`
}
