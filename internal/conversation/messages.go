package conversation

import (
	"fmt"
	"strings"
)

// Messages renders the scripted replies. Every method is a pure function of
// static copy plus the configured URLs and address.
type Messages struct {
	ReservationURL string
	MapsURL        string
	Address        string
}

func (m Messages) Welcome() string {
	return "Olá! Seja bem-vindo(a) à Monã – Terra Sem Males.\n" +
		"Trabalhamos com Day Use privativo para grupos fechados, com opção de hospedagem como extensão da experiência.\n\n" +
		"Para te orientar melhor, pode me informar:\n" +
		"• Data Desejada?\n" +
		"• Número de Pessoas?"
}

func (m Messages) QuickHelp() string {
	return "Me diz só o que você busca: *Day Use*, *hospedagem (extensão)*, *regras*, *como chegar* ou *fotos*."
}

func (m Messages) FoodPolicy() string {
	return "Sobre alimentação:\n" +
		"A Monã *não comercializa alimentos ou bebidas*.\n" +
		"Cada grupo traz sua própria comida e bebida.\n\n" +
		"A cozinha fica disponível *apenas como apoio* (fogão, geladeira e água mineral).\n" +
		"Isso faz parte da proposta de autonomia e cuidado com o território."
}

func (m Messages) DayUseInfo() string {
	return "O principal aqui é o *Day Use privativo* 🌿\n" +
		"• Funcionamento: *9h às 18h30*\n" +
		"• *Apenas um grupo por vez* (grupo fechado)\n" +
		"• *Não recebemos visitantes externos*\n" +
		"• *Não temos piscina artificial*\n" +
		"• *Não permitimos som alto*\n\n" +
		"Valores e capacidade:\n" +
		"• Valor mínimo: *R$ 1.000,00 por grupo* (até *20 pessoas*)\n" +
		"• A partir da 21ª pessoa: *R$ 83,00 por pessoa adicional*\n\n" +
		"Incluso no Day Use:\n" +
		"• uso exclusivo do espaço Monã\n" +
		"• estacionamento privativo\n" +
		"• cozinha com *fogão* e *geladeira* + *água mineral* (apoio)\n" +
		"• churrasqueira com carvão\n" +
		"• 2 caiaques (acesso à praia em frente)\n\n" +
		"Alimentação:\n" +
		"• não comercializamos comida/bebida — cada grupo traz o seu.\n\n" +
		"Para *datas/agenda/reserva*, é sempre pelo site: " + m.ReservationURL
}

func (m Messages) LodgingInfo() string {
	return "A hospedagem na Monã funciona como *extensão do Day Use* — não é vendida separadamente 🌿\n\n" +
		"Estrutura:\n" +
		"• apenas *2 suítes*\n\n" +
		"Valores por pernoite:\n" +
		"• Suíte 1: *R$ 500* (1 cama casal + 2 atadores de rede)\n" +
		"• Suíte 2: *R$ 800* (2 camas casal + 2 atadores de rede)\n" +
		"• Capacidade familiar: até *4 pessoas por suíte*\n\n" +
		"Horários:\n" +
		"• Check-in: *9h*\n" +
		"• Check-out: até *8h* da manhã seguinte (rigoroso)\n\n" +
		"Para datas e reserva: " + m.ReservationURL
}

func (m Messages) RulesFAQ() string {
	return "Alguns pontos importantes do Monã:\n" +
		"• *Day Use privativo* (um grupo por vez)\n" +
		"• *Não recebemos visitantes externos*\n" +
		"• *Não temos piscina artificial*\n" +
		"• *Não permitimos som alto*\n" +
		"• Funcionamento: *9h às 18h30*\n" +
		"• Check-out da hospedagem: até *8h*\n\n" +
		"Qual ponto você quer entender melhor?"
}

func (m Messages) CheckoutExplanation() string {
	return "O check-out ocorre até às *8h* da manhã para a preparação do espaço, garantindo a exclusividade do próximo grupo.\n\n" +
		"Caso deseje permanecer durante o dia, é possível contratar um novo Day Use, sujeito à disponibilidade."
}

func (m Messages) VisitorsExplanation() string {
	return "Não recebemos visitantes externos.\n" +
		"O espaço é exclusivo para o grupo informado na reserva, garantindo privacidade total."
}

func (m Messages) OnlyLodgingExplanation() string {
	return "A hospedagem na Monã funciona como uma extensão da experiência de floresta e não é vendida separadamente.\n" +
		"Ela está disponível apenas para quem contrata o Day Use exclusivo."
}

func (m Messages) ProfileMismatch() string {
	return "Agradecemos o contato!\n" +
		"A Monã trabalha exclusivamente nesse formato para preservar a experiência e a floresta.\n" +
		"Ficamos à disposição se fizer sentido em outro momento."
}

func (m Messages) HumanPause() string {
	return "Perfeito.\n\n" +
		"Vou te direcionar pro atendimento humano.\n" +
		"Daqui eu paro de responder por este número.\n\n" +
		"Pra retomar o automático depois, é só digitar: *#voltar*"
}

func (m Messages) Reactivated() string {
	return "✅ Atendimento automático reativado.\n\n" + m.Welcome()
}

func (m Messages) ReserveLink() string {
	return "Certo.\n" +
		"Agenda, datas disponíveis e reserva são feitas *somente pelo site*:\n\n" +
		"🔗 " + m.ReservationURL + "\n\n" +
		"Se você me disser se é *Day Use* ou *Hospedagem (extensão)*, eu te oriento com calma antes de reservar."
}

func (m Messages) AvailabilityLink(serviceHint string) string {
	hint := ""
	if serviceHint != "" {
		hint = "Pra " + serviceHint + ", "
	}
	return "Entendi.\n" +
		hint + "a agenda e as datas disponíveis aparecem *somente no site*:\n\n" +
		"🔗 " + m.ReservationURL + "\n\n" +
		"Se quiser, me diga: Day Use ou hospedagem? E o tamanho do grupo."
}

func (m Messages) FinalPrice() string {
	return "Consigo te orientar pelos valores base:\n" +
		"• mínimo R$ 1.000,00 (até 20 pessoas)\n" +
		"• a partir da 21ª pessoa: R$ 83,00 por pessoa adicional\n\n" +
		"Para *valor final* e fechamento, seguimos pelo site:\n" +
		"🔗 " + m.ReservationURL
}

func (m Messages) AskCPF() string {
	return "Certo.\n\n" +
		"Me mande seu *CPF* (11 dígitos) pra eu localizar sua reserva.\n" +
		"Ex.: 123.456.789-09\n\n" +
		"🔒 Uso só pra consulta."
}

func (m Messages) CPFRetry() string {
	return "Consigo consultar sim. Me mande um CPF com 11 dígitos."
}

func (m Messages) LookupWait() string {
	return "Um instante… vou consultar aqui."
}

func (m Messages) ReservationNotFound() string {
	return "Não encontrei reserva com esse CPF.\n\n" +
		"Para datas, agenda e reserva, é sempre pelo site:\n🔗 " + m.ReservationURL
}

func (m Messages) Location() string {
	return "📍 Localização do Monã:\n" +
		m.MapsURL + "\n\n" +
		"Endereço:\n" + m.Address + "\n\n" +
		"Se precisar de orientação, me diga de onde você sai."
}

func (m Messages) PhotosIntro() string {
	return "Vou te mostrar um pouco do que se vive aqui na Monã."
}

func (m Messages) NoSuitePhotos() string {
	return "Ainda não tenho fotos cadastradas das suítes."
}

func (m Messages) NoGalleryPhotos() string {
	return "Ainda não tenho fotos cadastradas na galeria."
}

func (m Messages) EmptyNudge() string {
	return "Te ouvi. Pode me mandar sua dúvida por aqui?"
}

func (m Messages) Apology() string {
	return "Ops. Tive um probleminha aqui. Pode tentar de novo?"
}

// ReservationSummary formats a found guest record for delivery, masking the
// CPF and humanizing the payment status.
func (m Messages) ReservationSummary(rec *GuestRecord) string {
	name := rec.Name
	if name == "" {
		name = "Cliente"
	}

	total := "-"
	if rec.TotalPrice != nil {
		total = "R$ " + strings.ReplaceAll(fmt.Sprintf("%.2f", *rec.TotalPrice), ".", ",")
	}
	guests := "-"
	if rec.Guests > 0 {
		guests = fmt.Sprintf("%d", rec.Guests)
	}

	return "Encontrei sua reserva, *" + name + "*.\n\n" +
		"🧾 CPF: " + MaskCPF(rec.CPF) + "\n" +
		"📅 Check-in: *" + orDash(rec.CheckIn) + "*\n" +
		"📅 Check-out: *" + orDash(rec.CheckOut) + "*\n" +
		"👥 Pessoas: *" + guests + "*\n" +
		"💰 Total: *" + total + "*\n" +
		"📌 Status: *" + humanizeStatus(rec) + "*\n\n" +
		"Para pagamento/segunda via e detalhes, use o site oficial:\n" +
		"🔗 " + m.ReservationURL + "\n"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func humanizeStatus(rec *GuestRecord) string {
	status := strings.ToUpper(rec.Status)
	pay := strings.ToUpper(rec.PaymentStatus)
	switch {
	case pay == "CONFIRMED" || status == "CONFIRMED" || pay == "PAID":
		return "✅ pago e confirmado"
	case pay == "PENDING" || status == "PENDING":
		return "⏳ aguardando pagamento"
	case pay == "FAILED" || status == "CANCELLED":
		return "⚠️ com pendência"
	default:
		return "em andamento"
	}
}

// MaskCPF hides the middle digits of a well-formed CPF; anything else is
// returned untouched.
func MaskCPF(cpf string) string {
	digits := digitsRe.ReplaceAllString(cpf, "")
	if len(digits) != 11 {
		return cpf
	}
	return digits[:3] + ".***.***-" + digits[9:]
}
