package services

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, dismissible message for the practitioner. Recoverable
// failures travel as notices and never as request errors.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

const (
	MsgUploadFailed    = "Erreur lors de l'upload des fichiers"
	MsgPersistFailed   = "Erreur lors de l'enregistrement"
	MsgSubmitted       = "Plan de traitement enregistré avec succès !"
	MsgShared          = "Lien de partage généré"
	MsgRestored        = "Plan de traitement chargé"
	MsgAttachmentDupe  = "Fichier déjà ajouté"
	MsgScreenshotTaken = "Capture d'écran réussie"
)

func notice(level NoticeLevel, msg string) Notice {
	return Notice{Level: level, Message: msg}
}
