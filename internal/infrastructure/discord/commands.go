package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/anyme/vcbot/internal/platform"
)

var (
	minWakeups = 1.0

	voiceChannelTypes    = []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice}
	categoryChannelTypes = []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory}
)

func memberOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "membre",
		Description: "Le membre ciblé",
		Required:    required,
	}
}

func voiceChannelOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "salon",
		Description:  "Le salon vocal",
		ChannelTypes: voiceChannelTypes,
		Required:     required,
	}
}

func choices(values ...string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, v := range values {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return out
}

func listCommand(name, description string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "add / remove / list",
				Required:    true,
				Choices:     choices("add", "remove", "list"),
			},
			memberOption(false),
		},
	}
}

// Commands is the slash command set registered on Ready.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "wakeup",
			Description: "Réveille un membre en le déplaçant dans les salons vocaux",
			Options: []*discordgo.ApplicationCommandOption{
				memberOption(true),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "fois",
					Description: "Nombre de déplacements (1 à 5)",
					Required:    true,
					MinValue:    &minWakeups,
					MaxValue:    5,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mp",
					Description: "Message privé envoyé après le réveil",
					Required:    true,
				},
			},
		},
		{
			Name:        "mp",
			Description: "Envoie un message privé à un membre",
			Options: []*discordgo.ApplicationCommandOption{
				memberOption(true),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "Le message à envoyer",
					Required:    true,
				},
			},
		},
		{
			Name:        "find",
			Description: "Trouve le salon vocal d'un membre",
			Options:     []*discordgo.ApplicationCommandOption{memberOption(true)},
		},
		{
			Name:        "join",
			Description: "Rejoint le salon vocal d'un membre ou un salon",
			Options:     []*discordgo.ApplicationCommandOption{memberOption(false), voiceChannelOption(false)},
		},
		{
			Name:        "mv",
			Description: "Déplace un membre dans un salon vocal",
			Options:     []*discordgo.ApplicationCommandOption{memberOption(true), voiceChannelOption(true)},
		},
		{
			Name:        "bringcc",
			Description: "Répartit les membres en vocal dans une catégorie",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "categorie",
					Description:  "La catégorie cible",
					ChannelTypes: categoryChannelTypes,
					Required:     true,
				},
			},
		},
		{
			Name:        "vc",
			Description: "Statistiques du serveur",
		},
		{
			Name:        "access",
			Description: "Donne accès à un salon à un membre",
			Options: []*discordgo.ApplicationCommandOption{
				memberOption(true),
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "salon",
					Description: "Le salon",
					Required:    true,
				},
			},
		},
		listCommand("toutou", "Gère la liste des toutous"),
		listCommand("chut", "Gère la liste des membres muets"),
		{
			Name:        "bot-avatar",
			Description: "Change l'avatar du bot",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "type",
				Description: "Lien de l'image",
				Required:    true,
			}},
		},
		{
			Name:        "bot-name",
			Description: "Change le nom du bot",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "type",
				Description: "Le nouveau nom",
				Required:    true,
			}},
		},
		{
			Name:        "bot-status",
			Description: "Change le statut du bot",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "type",
				Description: "Le statut",
				Required:    true,
				Choices:     choices(platform.Statuses...),
			}},
		},
		{
			Name:        "bot-activities",
			Description: "Change l'activité du bot",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Le type d'activité",
					Required:    true,
					Choices:     choices(platform.ActivityTypes...),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Le texte de l'activité",
					Required:    true,
				},
			},
		},
		{
			Name:        "help",
			Description: "Liste des commandes",
		},
	}
}
