package config

const (
	defaultDataDir       = "~/.local/share/marquee"
	defaultLogDir        = "~/.local/share/marquee/logs"
	defaultAPIBind       = "127.0.0.1:7827"
	defaultTMDBBaseURL   = "https://api.themoviedb.org/3"
	defaultTMDBLanguage  = "en-US"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultSubmitTimeout = 30
	defaultRemoveTimeout = 30
	defaultNotifyTimeout = 15
	defaultMailPort      = 587
	defaultMailSender    = "Marquee"
	defaultArrTimeout    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Mail: Mail{
			Port:       defaultMailPort,
			SenderName: defaultMailSender,
		},
		Workflow: Workflow{
			SubmitTimeout: defaultSubmitTimeout,
			RemoveTimeout: defaultRemoveTimeout,
			NotifyTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
