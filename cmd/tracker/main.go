package main

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/authority"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/config"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/notify"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/repositories/records"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/cleanup"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/registry"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/trigger"
)

// main runs a scripted skirmish against an in-memory scene so the tracker's
// behavior can be watched end to end without a live host engine.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Keep Redis client for cleanup
	var redisClient *redis.Client
	var repo records.Repository

	// Try to connect to Redis, falling back to in-memory records
	if cfg.Redis.Addr != "" {
		log.Printf("Connecting to Redis at: %s", cfg.Redis.Addr)

		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			cancel()
			log.Printf("Failed to connect to Redis: %v", pingErr)
			log.Println("Falling back to in-memory records")
			redisClient = nil
		} else {
			cancel()
			log.Println("Successfully connected to Redis")
			repo = records.NewRedisRepository(&records.RedisRepoConfig{Client: redisClient})
			log.Println("Using Redis for persistence")
		}
	} else {
		log.Println("No REDIS_ADDR set, using in-memory records")
	}

	// Build the notice pipeline. Discord mirroring is optional.
	notifier := notify.Notifier(notify.NewLogNotifier())

	var dg *discordgo.Session
	if cfg.Discord.Enabled() {
		dg, err = discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			log.Fatalf("Failed to create Discord session: %v", err)
		}
		if err = dg.Open(); err != nil {
			log.Printf("Failed to open Discord connection: %v", err)
		} else {
			notifier = notify.Multi(notifier, notify.NewDiscordNotifier(&notify.DiscordNotifierConfig{
				Session:   dg,
				ChannelID: cfg.Discord.ChannelID,
			}))
			log.Printf("Mirroring notices to Discord channel %s", cfg.Discord.ChannelID)
		}
	}

	eventBus := events.NewBus()
	notify.NewBusListener(eventBus, notifier)

	// Scene: a player-owned caster against two GM-owned monsters
	world := game.NewWorld(&game.WorldConfig{
		ClientUserID: cfg.Client.UserID,
		ClientIsGM:   cfg.Client.IsGM,
	})
	populateScene(world)

	presence := authority.NewStaticPresence(&authority.StaticPresenceConfig{
		ClientUserID:   cfg.Client.UserID,
		ClientIsGM:     cfg.Client.IsGM,
		ActiveGMUserID: cfg.Client.ActiveGMUserID,
		OnlineUsers:    []string{cfg.Client.UserID},
	})

	provider := services.NewProvider(&services.ProviderConfig{
		Repository:   repo,
		Resolver:     world,
		Documents:    world,
		Templates:    world,
		Visibility:   game.NewSight(&game.SightConfig{Walls: world.Walls}),
		Presence:     presence,
		EventBus:     eventBus,
		AutoApply:    cfg.Tracker.AutoApply,
		SeenCapacity: cfg.Tracker.DedupCacheSize,
	})

	runSkirmish(context.Background(), provider, world)

	if dg != nil {
		if err := dg.Close(); err != nil {
			log.Printf("Failed to close Discord connection: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}
}

func populateScene(world *game.World) {
	world.AddActor(&game.Actor{
		ID:          "actor-mirela",
		Name:        "Mirela",
		OwnerUserID: "alice",
		HP:          24,
		MaxHP:       24,
		SaveModifiers: map[string]int{
			"con": 3,
			"wis": 1,
		},
	})
	world.AddToken(&board.Token{
		ID:          "token-mirela",
		ActorID:     "actor-mirela",
		Name:        "Mirela",
		Disposition: board.DispositionFriendly,
	})

	world.AddActor(&game.Actor{
		ID:            "actor-goblin",
		Name:          "Goblin",
		OwnerUserID:   "gm",
		HP:            12,
		MaxHP:         12,
		SaveModifiers: map[string]int{"dex": 2},
	})
	world.AddToken(&board.Token{
		ID:          "token-goblin",
		ActorID:     "actor-goblin",
		Name:        "Goblin",
		Position:    board.Position{X: 60, Y: 0},
		Disposition: board.DispositionHostile,
	})

	world.AddActor(&game.Actor{
		ID:          "actor-ogre",
		Name:        "Ogre",
		OwnerUserID: "gm",
		HP:          40,
		MaxHP:       40,
	})
	world.AddToken(&board.Token{
		ID:          "token-ogre",
		ActorID:     "actor-ogre",
		Name:        "Ogre",
		Position:    board.Position{X: 80, Y: 20},
		Disposition: board.DispositionHostile,
	})
}

// runSkirmish plays three rounds: a damage-over-time cast, a caster-carried
// aura, token movement through it, and the expiry of the first spell.
func runSkirmish(ctx context.Context, provider *services.Provider, world *game.World) {
	goblin, err := world.Token("token-goblin")
	if err != nil {
		log.Fatalf("scene setup broken: %v", err)
	}

	// Round 1: Mirela lands Melf's Acid Arrow on the goblin
	dot, err := provider.Registry.StartDuration(ctx, &registry.StartDurationInput{
		CasterID:      "actor-mirela",
		SpellID:       "spell-acid-arrow",
		SpellName:     "Melf's Acid Arrow",
		CurrentRound:  1,
		DurationValue: 2,
		DurationUnit:  tracking.UnitRounds,
		Targets: []tracking.TargetRef{
			{TokenID: goblin.ID, ActorID: goblin.ActorID, Name: goblin.Name},
		},
		CachedSpell: tracking.CachedSpellData{Tier: 2, SaveDC: 13},
		PerTurn: &tracking.PerTurnConfig{
			Formula:    "2d4",
			Phase:      tracking.PhaseTurnEnd,
			DamageKind: "acid",
		},
	})
	if err != nil {
		log.Fatalf("failed to start Acid Arrow: %v", err)
	}
	log.Printf("Acid Arrow active until end of round %d", dot.Record.ExpiryRound)

	// Round 1: she also raises Spirit Guardians, an aura carried on her own
	// token
	aura, err := provider.Registry.StartDuration(ctx, &registry.StartDurationInput{
		CasterID:      "actor-mirela",
		SpellID:       "spell-spirit-guardians",
		SpellName:     "Spirit Guardians",
		CurrentRound:  1,
		DurationValue: 10,
		DurationUnit:  tracking.UnitRounds,
		CachedSpell:   tracking.CachedSpellData{Tier: 3, SaveDC: 14},
		PerTurn: &tracking.PerTurnConfig{
			Formula:    "3d8",
			Phase:      tracking.PhaseTurnStart,
			DamageKind: "radiant",
			Save:       &tracking.SaveConfig{Ability: "wis", DC: 14, Outcome: tracking.SaveHalves},
			Statuses:   []tracking.StatusSpec{{Name: "Haunted", Icon: "spirit"}},
		},
		Area: &tracking.AreaConfig{
			Radius:           30,
			AttachedToCaster: true,
			OnEnter:          true,
			OnLeave:          true,
			Filter:           board.FilterEnemies,
			ExcludeSelf:      true,
		},
	})
	if err != nil {
		log.Fatalf("failed to start Spirit Guardians: %v", err)
	}

	advance := func(round int, current, previous string) {
		if err := provider.Trigger.HandleTurnAdvanced(ctx, &trigger.TurnEvent{
			Round:           round,
			CurrentTokenID:  current,
			PreviousTokenID: previous,
		}); err != nil {
			log.Printf("turn advance failed: %v", err)
		}
	}

	move := func(tokenID string, to board.Position) {
		from, err := world.MoveToken(tokenID, to)
		if err != nil {
			log.Printf("move failed: %v", err)
			return
		}
		if err := provider.Trigger.HandleTokenMoved(ctx, &trigger.MoveEvent{
			TokenID: tokenID,
			From:    from,
			To:      to,
		}); err != nil {
			log.Printf("containment pass failed: %v", err)
		}
	}

	// Round 2: the goblin charges into the aura, then ends its turn
	move(goblin.ID, board.Position{X: 20, Y: 0})
	advance(2, goblin.ID, "token-mirela")
	advance(2, "token-ogre", goblin.ID)

	// Round 3: the goblin retreats out of the aura
	move(goblin.ID, board.Position{X: 60, Y: 0})
	advance(3, "token-mirela", "token-ogre")
	advance(3, goblin.ID, "token-mirela")

	// Round 4: Acid Arrow has run out and expires on the advance
	advance(4, "token-mirela", goblin.ID)

	// Mirela releases what is left
	if _, err := provider.Cleanup.EndDuration(ctx, &cleanup.EndDurationInput{
		CasterID:   "actor-mirela",
		InstanceID: aura.Record.InstanceID,
		Reason:     tracking.ReasonCancelled,
	}); err != nil {
		log.Printf("failed to end Spirit Guardians: %v", err)
	}

	log.Println("Skirmish complete")
}
