package fiche

import (
	"fmt"
	"strings"
)

// Registered fiche type identifiers.
const (
	TypeDefauts      = "defauts"
	TypeControleMES  = "controle_mes"
	TypeElectriciens = "electriciens"
	TypePoseurs      = "poseurs"
)

// Registry is the read-only catalogue of fiche schemas. It is safe for
// concurrent use after construction.
type Registry struct {
	ordered []*Schema
	byID    map[string]*Schema
}

// NewRegistry builds a registry holding the built-in fiche types.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]*Schema)}
	for _, s := range builtinSchemas() {
		r.ordered = append(r.ordered, s)
		r.byID[s.ID] = s
	}
	return r
}

// List returns the available fiche types in registration order.
func (r *Registry) List() []TypeInfo {
	out := make([]TypeInfo, 0, len(r.ordered))
	for _, s := range r.ordered {
		out = append(out, TypeInfo{ID: s.ID, Name: s.Name, Description: s.Description})
	}
	return out
}

// Get returns the schema for a fiche type id.
func (r *Registry) Get(id string) (*Schema, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("fiche type %q: %w", id, ErrUnknownFicheType)
	}
	return s, nil
}

// FormatList renders the type catalogue for display in a chat message.
func (r *Registry) FormatList() string {
	var sb strings.Builder
	sb.WriteString("**Types de fiches disponibles :**\n\n")
	for i, info := range r.List() {
		fmt.Fprintf(&sb, "%d. **%s**\n   _%s_\n\n", i+1, info.Name, info.Description)
	}
	return sb.String()
}

func okNokNa() []string { return []string{"OK", "NOK", "NA"} }

func builtinSchemas() []*Schema {
	return []*Schema{defautsSchema(), controleMESSchema(), electriciensSchema(), poseursSchema()}
}

func defautsSchema() *Schema {
	return &Schema{
		ID:          TypeDefauts,
		Name:        "Fiche de Défauts",
		Description: "Pour noter les anomalies et défauts constatés lors d'une intervention",
		Sections: []Section{
			{
				ID:   "mise_en_service",
				Name: "Mise en Service",
				Fields: []Field{
					{ID: "nom_chantier", Label: "Nom du chantier", Type: FieldText, Required: true},
					{ID: "ao", Label: "Numéro d'Appel d'Offres (AO)", Type: FieldText},
					{ID: "num_chantier", Label: "Numéro de chantier", Type: FieldText, Required: true},
					{ID: "nom_technicien", Label: "Nom du technicien", Type: FieldText, Required: true},
					{ID: "date", Label: "Date d'intervention", Type: FieldDate, Required: true},
					{ID: "signature", Label: "Signature", Type: FieldBoolean},
				},
			},
			{
				ID:   "tableau_defauts",
				Name: "Tableau des Défauts",
				Rows: []RowTemplate{
					{Localisation: "Partie DC", Fields: []string{"anomalies", "temps_passe"}},
					{Localisation: "Partie AC", Fields: []string{"anomalies", "temps_passe"}},
					{Localisation: "Partie Communication", Fields: []string{"anomalies", "temps_passe"}},
					{Localisation: "Liaison Equipotentielle / Mesure de terre", Fields: []string{"anomalies", "temps_passe"}},
					{Localisation: "Divers / Remarques", Fields: []string{"anomalies", "temps_passe"}},
				},
			},
		},
	}
}

func controleMESSchema() *Schema {
	return &Schema{
		ID:          TypeControleMES,
		Name:        "Fiche de Contrôle MES",
		Description: "Fiche de contrôle pour la mise en service d'une installation photovoltaïque",
		Sections: []Section{
			{
				ID:   "en_tete",
				Name: "En-tête",
				Fields: []Field{
					{ID: "nom_chantier", Label: "Nom Chantier", Type: FieldText, Required: true},
					{ID: "ao", Label: "AO (Appel d'Offres)", Type: FieldBoolean},
					{ID: "num_chantier", Label: "N° Chantier", Type: FieldText, Required: true},
					{ID: "date", Label: "Date", Type: FieldDate, Required: true},
					{ID: "nom_technicien", Label: "Nom Technicien", Type: FieldText, Required: true},
					{ID: "avec_bridage", Label: "Avec Bridage", Type: FieldBoolean},
					{ID: "avec_revente", Label: "Avec Revente", Type: FieldBoolean},
					{ID: "revente_totale", Label: "Revente Totale", Type: FieldBoolean},
					{ID: "supervision_ok", Label: "Supervision serveur fonctionnelle", Type: FieldBoolean, Required: true},
					{ID: "signature_technicien", Label: "Signature Technicien", Type: FieldText},
				},
			},
			{
				ID:   "local_technique",
				Name: "Local Technique",
				Fields: []Field{
					{ID: "arret_urgence", Label: "Arrêt d'urgence", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "serrages_armoire_ac", Label: "Serrages armoire AC", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "serrages_coffret_dc", Label: "Serrages coffret DC et/ou PE DC", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "parametres_onduleurs", Label: "Paramètres fonctionnement onduleurs", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "bridage_onduleurs", Label: "Bridage des onduleurs", Type: FieldText, Required: true},
					{ID: "reglage_cos_phi", Label: "Réglage Cos Phi Onduleurs", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "section_cable", Label: "Section câble de puissance", Type: FieldText, Required: true},
					{ID: "mesure_terre", Label: "Mesure de terre", Type: FieldText, Required: true},
					{ID: "concordance_schema", Label: "Concordance Schéma Unifilaire", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "presence_reperages", Label: "Présence repérages et numéros de série", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "presence_documents", Label: "Présence des documents", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "distance_onduleurs", Label: "Distance entre onduleurs", Type: FieldText, Required: true},
					{ID: "verification_courant", Label: "Vérification courant chaînes", Type: FieldSelect, Options: okNokNa(), Required: true},
				},
			},
			{
				ID:   "point_livraison",
				Name: "Point de Livraison",
				Fields: []Field{
					{ID: "serrages_bretelles", Label: "Serrages Bretelles et câbles PDL", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "serrages_remarque", Label: "Serrages - Remarque", Type: FieldTextarea},
					{ID: "absence_continuite", Label: "Absence de continuité (Entre phases & Entre neutre et phase)", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "continuite_remarque", Label: "Continuité - Remarque", Type: FieldTextarea},
					{ID: "disjoncteur_type_3dn2", Label: "Disjoncteur NSX - Type 3D-N/2", Type: FieldBoolean},
					{ID: "disjoncteur_type_4p4d", Label: "Disjoncteur NSX - Type 4P4D", Type: FieldBoolean},
					{ID: "disjoncteur_ir", Label: "Disjoncteur NSX - Ir (en A)", Type: FieldText, Required: true},
					{ID: "disjoncteur_isd", Label: "Disjoncteur NSX - Isd (facteur X)", Type: FieldText, Required: true},
					{ID: "disjoncteur_etat", Label: "Disjoncteur NSX - État", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "vigi_calibre_03", Label: "Vigi - Calibre 0.3A", Type: FieldBoolean},
					{ID: "vigi_calibre_1a", Label: "Vigi - Calibre 1A", Type: FieldBoolean},
					{ID: "vigi_calibre_3a", Label: "Vigi - Calibre 3A", Type: FieldBoolean},
					{ID: "vigi_calibre_5a", Label: "Vigi - Calibre 5A", Type: FieldBoolean},
					{ID: "vigi_etat", Label: "Vigi - État", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "installation_type", Label: "Type d'installation", Type: FieldSelect, Options: []string{
						"0-36 Kva (100 Ω / 0.03 à 0.5 mA)",
						"36-100 Kva (50 Ω / 1A)",
						"100-250 Kva (16 Ω / 3A)",
						"250-500 Kva (10 Ω / 5A)",
					}, Required: true},
					{ID: "installation_etat", Label: "Installation - État", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "dt_differentiel", Label: "ΔT Différentiel (60 ms avec différentiel sur disjoncteur onduleur / 0 ms IMPERATIF sans différentiel)", Type: FieldText, Required: true},
					{ID: "dt_differentiel_etat", Label: "ΔT Différentiel - État", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "dt_differentiel_remarque", Label: "ΔT Différentiel - Remarque", Type: FieldTextarea},
				},
			},
			{
				ID:   "administratif",
				Name: "Administratif",
				Fields: []Field{
					{ID: "signature_pv", Label: "Signature PV Réception Travaux", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "satisfaction_client", Label: "Remplissage Satisfaction client", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "document_apepha", Label: "Remplissage document APEPHA", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "explications_client", Label: "Explications de fonctionnement au client", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "procedure_apres_mes", Label: "Remise Procédure après MES", Type: FieldSelect, Options: okNokNa(), Required: true},
					{ID: "signature_enedis", Label: "Signature Fin de MES avec Enedis", Type: FieldSelect, Options: okNokNa(), Required: true},
				},
			},
			{
				ID:     "equipements",
				Name:   "Informations Équipements",
				Fields: equipementFields(),
			},
		},
	}
}

// equipementFields builds the repetitive equipment inventory of the Contrôle
// MES fiche: four inverters plus the communication devices.
func equipementFields() []Field {
	var fields []Field
	for i := 1; i <= 4; i++ {
		prefix := fmt.Sprintf("onduleur_%d", i)
		label := fmt.Sprintf("Onduleur N°%d", i)
		fields = append(fields,
			Field{ID: prefix + "_ref", Label: label + " - Référence", Type: FieldText},
			Field{ID: prefix + "_serie", Label: label + " - N° Série", Type: FieldText},
			Field{ID: prefix + "_id", Label: label + " - N° ID", Type: FieldText},
			Field{ID: prefix + "_ip", Label: label + " - Adresse IP Fixe", Type: FieldText},
		)
	}
	commDevices := []struct {
		id, label string
		extra     []string // trailing field ids beyond ref/acces/ip/mdp
	}{
		{"smart_logger", "SMART LOGGER 3000A", []string{"serie"}},
		{"smart_dongle", "SMART DONGLE 4G/RJ45", []string{"serie"}},
		{"webdynsun", "WEBDYNSUN", []string{"serie"}},
		{"data_manager", "DATA MANAGER", []string{"pic", "rid"}},
		{"compteur_1", "COMPTEUR N°1", []string{"serie"}},
		{"ecran_deporte", "ECRAN DEPORTE", []string{"serie"}},
	}
	extraLabels := map[string]string{
		"serie": "N° Série",
		"pic":   "PIC",
		"rid":   "RID",
	}
	for _, dev := range commDevices {
		fields = append(fields,
			Field{ID: dev.id + "_ref", Label: dev.label + " - Référence", Type: FieldText},
			Field{ID: dev.id + "_acces", Label: dev.label + " - Accès", Type: FieldBoolean},
			Field{ID: dev.id + "_ip", Label: dev.label + " - IP", Type: FieldText},
			Field{ID: dev.id + "_mdp", Label: dev.label + " - Mot de passe", Type: FieldText},
		)
		for _, extra := range dev.extra {
			fields = append(fields, Field{ID: dev.id + "_" + extra, Label: dev.label + " - " + extraLabels[extra], Type: FieldText})
		}
	}
	return fields
}

func electriciensSchema() *Schema {
	return &Schema{
		ID:          TypeElectriciens,
		Name:        "Fiche de Contrôle Électriciens",
		Description: "Fiche de contrôle pour les travaux électriques",
		Sections: []Section{
			{
				ID:   "en_tete",
				Name: "Procès Verbal",
				Fields: []Field{
					{ID: "num_chantier", Label: "N° de chantier", Type: FieldText, Required: true},
					{ID: "date", Label: "Date", Type: FieldDate},
				},
			},
			{
				ID:   "reception_pose",
				Name: "Réception Pose Centrale",
				Fields: []Field{
					{ID: "pose_reception_sans_reserve", Label: "Réception sans réserve", Type: FieldBoolean, Required: true},
					{ID: "pose_nature_reserves", Label: "Nature des réserves (pose)", Type: FieldTextarea},
				},
			},
			{
				ID:   "reception_raccordement",
				Name: "Réception Raccordement",
				Fields: []Field{
					{ID: "raccordement_reception_sans_reserve", Label: "Réception sans réserve", Type: FieldBoolean, Required: true},
					{ID: "raccordement_nature_reserves", Label: "Nature des réserves (raccordement)", Type: FieldTextarea},
				},
			},
			{
				ID:   "mesures_tensions",
				Name: "Mesure des tensions des chaînes DC",
				Fields: []Field{
					{ID: "mesures_effectuees", Label: "Mesures effectuées", Type: FieldBoolean, Required: true},
					{ID: "remarques_mesures", Label: "Remarques sur les mesures", Type: FieldTextarea},
				},
			},
		},
	}
}

func poseursSchema() *Schema {
	valideNa := []string{"VALIDE", "NA"}
	return &Schema{
		ID:          TypePoseurs,
		Name:        "Fiche de Contrôle Poseurs",
		Description: "Fiche de contrôle pour les travaux de pose",
		Sections: []Section{
			{
				ID:   "informations_projet",
				Name: "Informations Projet",
				Fields: []Field{
					{ID: "nom_dossier", Label: "Nom du Dossier", Type: FieldText, Required: true},
					{ID: "num_chantier", Label: "Numéro du chantier", Type: FieldText, Required: true},
					{ID: "semaine_pose", Label: "Semaine de Pose", Type: FieldText, Required: true},
					{ID: "nom_client", Label: "Nom du client", Type: FieldText, Required: true},
					{ID: "telephone", Label: "Numéro de téléphone", Type: FieldText},
					{ID: "adresse_projet", Label: "Adresse du projet", Type: FieldText, Required: true},
					{ID: "commercial", Label: "Commercial", Type: FieldText},
					{ID: "charge_etudes", Label: "Chargé d'études", Type: FieldText},
					{ID: "conducteur_travaux", Label: "Conducteur de travaux", Type: FieldText},
				},
			},
			{
				ID:   "type_installation",
				Name: "Type d'Installation",
				Fields: []Field{
					{ID: "vente_totale", Label: "Vente totale", Type: FieldBoolean, Required: true},
					{ID: "vente_surplus", Label: "Vente de surplus", Type: FieldBoolean, Required: true},
					{ID: "autoconsommation", Label: "Autoconsommation", Type: FieldBoolean, Required: true},
					{ID: "option_shelter", Label: "Option Shelter", Type: FieldBoolean},
				},
			},
			{
				ID:   "pochette_documents",
				Name: "Pochette Documents",
				Fields: []Field{
					{ID: "plan_prevention", Label: "Plan de prévention / PPSPL", Type: FieldSelect, Options: valideNa, Required: true},
					{ID: "schemas_unifilaire", Label: "Schémas unifilaire", Type: FieldSelect, Options: valideNa, Required: true},
					{ID: "carnet_plan", Label: "Carnet de plan", Type: FieldSelect, Options: valideNa, Required: true},
					{ID: "nomenclature", Label: "Nomenclature", Type: FieldSelect, Options: valideNa, Required: true},
					{ID: "photos_chantier", Label: "Photos vitrines chantiers", Type: FieldSelect, Options: valideNa},
					{ID: "pv_reception", Label: "Procès verbal de réception de travaux", Type: FieldSelect, Options: valideNa, Required: true},
					{ID: "fiche_fin_chantier", Label: "Fiche de fin de chantier", Type: FieldSelect, Options: valideNa, Required: true},
				},
			},
			{
				ID:   "configuration",
				Name: "Configuration du chantier",
				Fields: []Field{
					{ID: "puissance_installation", Label: "Puissance installation (kWc)", Type: FieldText, Required: true},
					{ID: "panneaux", Label: "Panneaux (nombre x modèle)", Type: FieldText, Required: true},
					{ID: "systeme_integration", Label: "Système d'intégration", Type: FieldText, Required: true},
					{ID: "onduleur", Label: "Onduleur(s)", Type: FieldText, Required: true},
				},
			},
			{
				ID:   "reception",
				Name: "Réception des Travaux",
				Fields: []Field{
					{ID: "pose_reception_sans_reserve", Label: "Pose - Réception sans réserve", Type: FieldBoolean, Required: true},
					{ID: "pose_nature_reserves", Label: "Pose - Nature des réserves", Type: FieldTextarea},
					{ID: "raccordement_reception_sans_reserve", Label: "Raccordement - Réception sans réserve", Type: FieldBoolean, Required: true},
					{ID: "raccordement_nature_reserves", Label: "Raccordement - Nature des réserves", Type: FieldTextarea},
					{ID: "date_signature", Label: "Date de signature", Type: FieldDate, Required: true},
					{ID: "lieu", Label: "Fait à", Type: FieldText},
				},
			},
			{
				ID:   "remarques",
				Name: "Remarques",
				Fields: []Field{
					{ID: "remarques_generales", Label: "Remarques générales", Type: FieldTextarea},
				},
			},
		},
	}
}
