package conversation

import (
	"regexp"
	"sort"
	"strings"
)

// Intent is the classified purpose behind a guest's message.
type Intent string

const (
	IntentNone            Intent = ""
	IntentLocation        Intent = "location"
	IntentFoodPolicy      Intent = "food_policy"
	IntentOnlyLodging     Intent = "only_lodging"
	IntentCheckoutTime    Intent = "checkout_time"
	IntentVisitors        Intent = "visitors"
	IntentFinalPrice      Intent = "final_price"
	IntentAvailability    Intent = "availability"
	IntentLookup          Intent = "lookup"
	IntentReservationLink Intent = "reservation_link"
	IntentHuman           Intent = "human"
	IntentSuitePhotos     Intent = "suite_photos"
	IntentGallery         Intent = "gallery"
	IntentRules           Intent = "rules"
	IntentDayUse          Intent = "day_use"
	IntentLodging         Intent = "lodging"
	IntentProfileMismatch Intent = "profile_mismatch"
)

var (
	locationRe = regexp.MustCompile(`\b(como chegar|como eu chego|onde fica|endereco|endereço|localizacao|localização|rota|maps|google maps|link do maps|link do google maps)\b`)
	foodRe     = regexp.MustCompile(`\b(comida|bebida|alimentacao|alimentação|cerveja|refrigerante|churrasco|carne|gelo|fogao|fogão|geladeira|cozinha|panelas?|pratos?|talheres?|copos?|garrafas?)\b`)
	checkoutRe = regexp.MustCompile(`\b(checkout|check-out|check out|saida|saída|sair|ate 8h|até 8h|8h)\b`)
	visitorsRe = regexp.MustCompile(`\b(visitante|visitantes|gente a mais|pessoa a mais|entrar depois|convidado|convidados)\b`)
	priceRe    = regexp.MustCompile(`\b(quanto fica|quanto sai|valor final|orcamento|orçamento|preco para|preço para|quanto custa para|total para)\b`)
	availRe    = regexp.MustCompile(`\b(datas?|disponivel|disponível|disponiveis|disponíveis|disponibilidade|vagas?|agenda|calendario|calendário)\b`)
	lookupRe   = regexp.MustCompile(`\b(consultar|minha reserva|meu pedido|meu pagamento|status|comprovante|ja paguei|já paguei|paguei|confirmacao|confirmação|cpf)\b`)
	reserveRe  = regexp.MustCompile(`\b(reservar|reserva|agendar|agenda|pagamento|pagar|pix|boleto|cartao|cartão|checkout|comprar|fechar|confirmar)\b`)
	linkRe     = regexp.MustCompile(`\blink\b`)
	linkCtxRe  = regexp.MustCompile(`\b(reserva|reservar|pagar|pagamento|checkout|site|pagina|página)\b`)
	humanRe    = regexp.MustCompile(`\b(humano|atendente|pessoa|falar com alguem|falar com alguém|suporte|atendimento humano)\b`)
	suiteRe    = regexp.MustCompile(`\b(fotos? das su[ií]tes?|fotos? da su[ií]te|su[ií]tes? fotos?|quarto fotos?)\b`)
	galleryRe  = regexp.MustCompile(`\b(fotos|galeria|imagem|imagens|ver o lugar|mostra|mostrar)\b`)
	rulesRe    = regexp.MustCompile(`\b(regras|faq|duvidas|dúvidas|pode levar|pode entrar|crianca|criança|pet|som|visitante|visitantes|checkout|check-out|check out|check-in|check in)\b`)
	dayUseRe   = regexp.MustCompile(`\b(day\s*use|passar o dia|usar o espaco|usar o espaço|grupo fechado|dayuse)\b`)
	lodgingRe  = regexp.MustCompile(`\b(hospedagem|hospedar|pernoite|noite|su[ií]te|quarto|dormir)\b`)
	onlyRe     = regexp.MustCompile(`\b(so hospedagem|só hospedagem|apenas hospedagem|somente hospedagem|so pernoite|só pernoite|apenas pernoite)\b`)
	mismatchRe = regexp.MustCompile(`\b(nao gostei|não gostei|nao serve|não serve|nao faz sentido|não faz sentido|muito caro|quero som alto|quero festa|queria promocao|queria promoção|queria passeios)\b`)

	greetingRe = regexp.MustCompile(`^(oi|ola|olá|bom dia|boa tarde|boa noite|eai|ei|opa|oie|inicio|início|menu|hello|hi)$`)
	cpfRe      = regexp.MustCompile(`\d{11}`)
	digitsRe   = regexp.MustCompile(`\D+`)
)

func wantsLocation(text string) bool { return locationRe.MatchString(text) }
func wantsDayUse(text string) bool   { return dayUseRe.MatchString(text) }
func wantsLodging(text string) bool  { return lodgingRe.MatchString(text) }

// wantsLink is mutually exclusive with wantsLocation: "link do maps" must
// route to the address, never to the reservation link.
func wantsLink(text string) bool {
	if wantsLocation(text) {
		return false
	}
	return linkRe.MatchString(text) && linkCtxRe.MatchString(text)
}

// IsGreeting matches a bare greeting or menu-reset word.
func IsGreeting(text string) bool {
	return greetingRe.MatchString(text)
}

// IsUnpauseCommand matches the literal command that exits the HUMAN step.
func IsUnpauseCommand(text string) bool {
	return text == "#voltar" || text == "voltar" || text == "ativar bot"
}

// ExtractCPF returns the first well-formed 11-digit identifier found in raw
// text, tolerating the usual 123.456.789-09 punctuation.
func ExtractCPF(text string) (string, bool) {
	digits := digitsRe.ReplaceAllString(text, "")
	match := cpfRe.FindString(digits)
	if match == "" {
		return "", false
	}
	return match, true
}

// Rule is one row of the intent table. Priority is an explicit total order:
// lower values are evaluated first and reordering changes routing outcomes.
type Rule struct {
	Tag      Intent
	Priority int
	Match    func(text string) bool
}

// Classifier evaluates the ordered rule table; the first matching rule wins.
type Classifier struct {
	rules []Rule
}

// ClassifierConfig tunes the heuristic gates inside individual rules.
type ClassifierConfig struct {
	// RulesMaxInput gates the rules/FAQ rule to short inputs so long free
	// text is not misclassified. Product-tuned heuristic, not a principled
	// boundary.
	RulesMaxInput int
}

// NewClassifier builds the concierge rule table. The priority values are a
// design invariant: location must outrank the reservation link (both can
// match a phrase containing "maps" + "link"), availability must outrank
// reservation (both match "agenda"), and the info rules sit below every
// policy rule so a question about a policy inside a longer sentence wins.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	maxRules := cfg.RulesMaxInput
	if maxRules <= 0 {
		maxRules = 80
	}

	rules := []Rule{
		{Tag: IntentLocation, Priority: 10, Match: wantsLocation},
		{Tag: IntentFoodPolicy, Priority: 20, Match: foodRe.MatchString},
		{Tag: IntentOnlyLodging, Priority: 30, Match: func(t string) bool {
			return wantsLodging(t) && onlyRe.MatchString(t)
		}},
		{Tag: IntentCheckoutTime, Priority: 40, Match: checkoutRe.MatchString},
		{Tag: IntentVisitors, Priority: 50, Match: visitorsRe.MatchString},
		{Tag: IntentFinalPrice, Priority: 60, Match: priceRe.MatchString},
		{Tag: IntentAvailability, Priority: 70, Match: availRe.MatchString},
		{Tag: IntentLookup, Priority: 80, Match: lookupRe.MatchString},
		{Tag: IntentReservationLink, Priority: 90, Match: func(t string) bool {
			return reserveRe.MatchString(t) || wantsLink(t)
		}},
		{Tag: IntentHuman, Priority: 100, Match: humanRe.MatchString},
		{Tag: IntentSuitePhotos, Priority: 110, Match: suiteRe.MatchString},
		{Tag: IntentGallery, Priority: 120, Match: galleryRe.MatchString},
		{Tag: IntentRules, Priority: 130, Match: func(t string) bool {
			return rulesRe.MatchString(t) && len([]rune(t)) < maxRules
		}},
		{Tag: IntentDayUse, Priority: 140, Match: wantsDayUse},
		{Tag: IntentLodging, Priority: 150, Match: wantsLodging},
		{Tag: IntentProfileMismatch, Priority: 160, Match: mismatchRe.MatchString},
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	return &Classifier{rules: rules}
}

// Classify evaluates normalized (case-folded, trimmed) text against the rule
// table and returns the first matching tag, or IntentNone. Rules are pure
// and total; Classify never fails.
func (c *Classifier) Classify(text string) Intent {
	for _, rule := range c.rules {
		if rule.Match(text) {
			return rule.Tag
		}
	}
	return IntentNone
}

// Rules exposes the table in evaluation order so tests can assert on the
// priority values directly instead of on array position.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Normalize prepares raw inbound text for classification.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
