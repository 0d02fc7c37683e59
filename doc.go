// Project Structure Overview
/*
listing-studio/
├── cmd/
│   └── server/
│       └── main.go          HTTP API, run dispatch, graceful shutdown
├── internal/
│   ├── config/              environment configuration
│   ├── database/            connection, migrations, indexes
│   ├── models/              listings, products, generation runs, library, notifications
│   ├── generation/          orchestrator, progress projector, run registry, finalizer
│   ├── services/            listing store, AI clients, S3 mirror, generation service
│   ├── worker/              asynq queue and in-process dispatch
│   ├── handlers/            gin handlers including the progress websocket
│   ├── middleware/          auth, cors, i18n, logging, rate limiting
│   ├── i18n/                embedded locales
│   ├── utils/               jwt, validation, pagination, response envelope
│   └── router/
└── go.mod
*/

// Package listingstudio turns a catalog product into a channel listing: copy,
// a hero image, a gallery, video reference frames and a product video.
package listingstudio
