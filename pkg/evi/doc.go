// Package evi connects local microphone and speaker hardware to the Hume
// Empathic Voice Interface (EVI) speech-to-speech chat API.
//
// # Overview
//
// A Session opens one chat websocket, streams microphone audio into it and
// handles what comes back:
//   - chat_metadata events are logged with their chat and chat group ids
//   - user_message and assistant_message events are logged as "role: content"
//     followed by the three strongest prosody emotions
//   - audio_output events are decoded and played at 16 kHz
//   - error events end the session with a *RemoteServiceError
//   - anything else is logged by its type
//
// # Quick Start
//
//	session := evi.NewSession(os.Getenv("HUME_API_KEY"), os.Getenv("HUME_CONFIG_ID"), false)
//	if err := session.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Run blocks until the microphone stops, the socket closes or ctx is
// cancelled. The socket is always closed before Run returns and nothing is
// retried.
//
// # Configuration
//
// Config collects credentials, endpoints and debug switches. LoadConfig
// reads HUME_* variables (and a .env file), LoadConfigFile reads YAML first:
//
//	config := evi.LoadConfig()
//	if issues := config.Validate(); len(issues) > 0 {
//		log.Fatal(issues)
//	}
//	session := evi.NewSessionFromConfig(config)
//
// With HUME_SECRET_KEY set the session authenticates with short lived access
// tokens from TokenManager instead of sending the API key.
//
// # Transcript output
//
// The conversation transcript goes to stdout through Console:
//
//	[14:03:27] <chat_metadata> Chat ID: 5f..., Chat Group ID: 9a...
//	[14:03:31] user: Hello there
//	Joy (0.41) | Interest (0.33) | Calmness (0.20)
//
// Diagnostics use the zerolog based Logger on stderr; raise its level with
// HUME_DEBUG_LEVEL=DEBUG or HUME_DEBUG_WEBSOCKET=true.
//
// # Custom collaborators
//
// Transport, Microphone and Player are interfaces. The defaults are
// WebSocketTransport, PortAudioMicrophone and PortAudioPlayer; replace them
// with WithTransport, WithMicrophone and WithPlayer. Extra event observers
// are added with WithMessageHandler:
//
//	session := evi.NewSession(apiKey, configID, true,
//		evi.WithMessageHandler(evi.CreateTranscriptHandler(func(role, content string, scores *evi.Scores) {
//			fmt.Println(role, evi.FormatEmotions(evi.TopN(scores, 5)))
//		})),
//	)
//
// # Concurrency
//
// Events are dispatched one at a time on the socket's read loop, so a slow
// playback holds back the next event. Microphone capture runs on its own
// goroutine and shares only the session ByteStream with the dispatcher.
//
// # Dependencies
//
// The SDK depends on:
//   - github.com/gordonklaus/portaudio: Audio I/O
//   - github.com/gorilla/websocket: WebSocket client
//   - github.com/rs/zerolog: Structured logging
//   - github.com/golang-jwt/jwt/v4: Access token expiry
//   - github.com/joho/godotenv and gopkg.in/yaml.v3: Configuration
//   - github.com/wk8/go-ordered-map/v2: Ordered emotion scores
//   - golang.org/x/sync/errgroup: Session goroutines
package evi
