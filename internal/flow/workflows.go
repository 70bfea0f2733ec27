package flow

import "github.com/AthenaAdvising/AthenaPipe/internal/models"

// Stage names for the guided activity workflows.
const (
	StageResearchIntro   models.StageType = "step1_intro"
	StageResearchTypes   models.StageType = "step2_types"
	StageResearchMentor  models.StageType = "step3_mentor"
	StageResearchDetails models.StageType = "step4_details"
	StageResearchParked  models.StageType = "mentor"

	StageDECAEventType models.StageType = "event_type"

	StageMUNCommittee     models.StageType = "committee"
	StageMUNPositionPaper models.StageType = "position_paper"

	StagePodcastTopic  models.StageType = "topic"
	StagePodcastFormat models.StageType = "format"

	StageEventPick  models.StageType = "event_pick"
	StageClarifying models.StageType = "clarifying"
)

// DefaultWorkflows returns the guided activity workflow tables in priority
// order. The slice order is significant: the first mid-flight workflow owns
// the turn, and the first matching trigger wins on entry.
func DefaultWorkflows() []WorkflowDef {
	return []WorkflowDef{
		researchWorkflow(),
		decaWorkflow(),
		munWorkflow(),
		podcastWorkflow(),
		scienceOlympiadWorkflow(),
		volunteeringWorkflow(),
		scienceProjectWorkflow(),
		competitionWorkflow(),
	}
}

func researchWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowResearch,
		Triggers:      []string{"research"},
		EntryTemplate: "Research is a fantastic way to go deeper into something you care about, {name}. Based on your interests, fields like {deep_interest} and {future_study} could be great places to start. Want me to walk you through how high schoolers usually get into research?",
		Steps: []WorkflowStep{
			{
				Stage:  StageResearchIntro,
				Expect: ExpectYesNo,
				Transitions: map[string]Transition{
					"yes": {
						To:       StageResearchTypes,
						Template: "There are a few common paths: (1) joining a university lab as a research assistant, (2) a structured summer research program, (3) an independent project with a teacher as advisor, or (4) an online research mentorship. Which of these sounds most like you?",
					},
					"no": {
						To:       models.StageNone,
						Template: "No problem at all. If research ever sounds interesting later, just bring it up and we can pick this back up.",
					},
				},
				Reprompt: "Just to make sure I point you the right way: would you like me to walk you through how students usually get started with research? A simple yes or no works.",
			},
			{
				Stage:  StageResearchTypes,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:       StageResearchMentor,
						Template: "Good choice. The next big step is finding someone to guide you. Would you like help finding a mentor for this, or should I go straight into the details of how to get started?",
					},
				},
				Reprompt: "Which path sounds closest to what you want? A lab, a summer program, an independent project, or an online mentorship?",
			},
			{
				Stage:   StageResearchMentor,
				Expect:  ExpectOption,
				Options: []string{"mentor", "details"},
				Transitions: map[string]Transition{
					"mentor": {
						To:  StageResearchParked,
						Ack: "Let's focus on finding you a mentor then. Tell me a bit about what you'd want to work on with them, and I'll keep an eye out for a good match.",
					},
					"details": {
						To:        StageResearchDetails,
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student start a research project. Lay out a concrete first-month plan: how to identify a topic, how to cold-email professors or find programs, and what to prepare. Keep it to a short, encouraging list.",
					},
				},
				Reprompt: "Would you like help finding a mentor, or the details of getting started on your own?",
			},
			{
				Stage:  StageResearchDetails,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor wrapping up a conversation about getting started with research. Answer the student's follow-up question concretely and encourage them to report back on their progress.",
					},
				},
				Reprompt: "Anything else you want to know about getting started with research?",
			},
			{
				Stage:  StageResearchParked,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student find a research mentor. Based on what they want to work on, suggest how to find and approach a mentor: which professors or programs to look at and what to say in a first message.",
					},
				},
				Reprompt: "Tell me what you'd want to work on with a mentor and I'll take it from there.",
			},
		},
	}
}

func decaWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowDECA,
		Triggers:      []string{"deca"},
		EntryTemplate: "DECA is a great pick, {name}. Events come in a few flavors: roleplay events where you solve a business case live, prepared events where you present a written project, and online events like the stock market game. Which type sounds most interesting to you?",
		Steps: []WorkflowStep{
			{
				Stage:   StageDECAEventType,
				Expect:  ExpectOption,
				Options: []string{"roleplay", "prepared", "online"},
				Transitions: map[string]Transition{
					"roleplay": {
						To:        models.StageNone,
						Ack:       "Roleplay events are a great way to build on-your-feet thinking.",
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student prepare for DECA roleplay events. Explain how roleplay events work, how to practice cases, and how to prepare for the performance indicators. Keep it short and actionable.",
					},
					"prepared": {
						To:        models.StageNone,
						Ack:       "Prepared events let you go deep on a project you care about.",
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student prepare for DECA prepared events. Explain how written events work, how to pick a project, and what judges look for. Keep it short and actionable.",
					},
					"online": {
						To:        models.StageNone,
						Ack:       "The online events are a low-pressure way to get started.",
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student get started with DECA online events such as the stock market game. Explain how they work and how to do well. Keep it short and actionable.",
					},
				},
				Reprompt: "Which DECA event type sounds best: roleplay, prepared, or online?",
			},
		},
	}
}

func munWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowMUN,
		Triggers:      []string{"model un", "model united nations"},
		EntryTemplate: "Model UN is a fantastic way to sharpen your public speaking and research skills, {name}. Committees range from big general assemblies to small crisis committees. What kind of topics would you want to debate?",
		Steps: []WorkflowStep{
			{
				Stage:  StageMUNCommittee,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:       StageMUNPositionPaper,
						Template: "That's a solid direction. Most conferences will ask you to write a position paper before you attend. Want me to walk you through how to write a strong one?",
					},
				},
				Reprompt: "What committee topics interest you most? Anything from global health to international security works.",
			},
			{
				Stage:  StageMUNPositionPaper,
				Expect: ExpectYesNo,
				Transitions: map[string]Transition{
					"yes": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor teaching a high school student how to write a Model UN position paper. Cover the standard structure, how to research their country's stance, and one tip for standing out. Keep it short.",
					},
					"no": {
						To:       models.StageNone,
						Template: "Sounds good. When a conference comes up, let me know and we can prep together.",
					},
				},
				Reprompt: "Would you like help with the position paper? Yes or no is fine.",
			},
		},
	}
}

func podcastWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowPodcast,
		Triggers:      []string{"podcast"},
		EntryTemplate: "Starting a podcast is a great way to explore {deep_interest} and build something of your own, {name}. What would you want your podcast to be about?",
		Steps: []WorkflowStep{
			{
				Stage:  StagePodcastTopic,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:       StagePodcastFormat,
						Template: "I like it. Next question: what format fits you best? Solo episodes where you share your own take, interview episodes with guests, or a panel show with friends?",
					},
				},
				Reprompt: "What topic would you want to build your podcast around?",
			},
			{
				Stage:   StagePodcastFormat,
				Expect:  ExpectOption,
				Options: []string{"solo", "interview", "panel"},
				Transitions: map[string]Transition{
					"solo": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student launch a solo podcast. Give a simple launch plan: equipment on a budget, episode structure, and how to publish the first three episodes.",
					},
					"interview": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student launch an interview podcast. Give a simple launch plan: how to find and approach guests, question preparation, and publishing the first episodes.",
					},
					"panel": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student launch a panel podcast with friends. Give a simple launch plan: keeping a panel focused, recording logistics, and publishing the first episodes.",
					},
				},
				Reprompt: "Which format appeals to you: solo, interview, or panel?",
			},
		},
	}
}

func scienceOlympiadWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowScienceOlympiad,
		Triggers:      []string{"science olympiad", "scioly"},
		EntryTemplate: "Science Olympiad has events across every branch of science, {name}, from anatomy to astronomy to build events. Which events or areas sound most interesting to you?",
		Steps: []WorkflowStep{
			{
				Stage:  StageEventPick,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student prepare for Science Olympiad. Given the events they mentioned, lay out a prep plan: study resources, practice tests, and how to split work with a partner. Keep it short.",
					},
				},
				Reprompt: "Which Science Olympiad events or science areas are you drawn to?",
			},
		},
	}
}

func volunteeringWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowVolunteering,
		Triggers:      []string{"volunteer"},
		EntryTemplate: "Volunteering is a meaningful way to spend your time, {name}. What causes matter most to you? Anything from tutoring to the environment to healthcare counts.",
		Steps: []WorkflowStep{
			{
				Stage:  StageClarifying,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor helping a high school student find volunteering opportunities. Given the cause they care about, suggest concrete kinds of local organizations to approach and how to reach out. Keep it short and practical.",
					},
				},
				Reprompt: "Which cause would you most want to volunteer for?",
			},
		},
	}
}

func scienceProjectWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowScienceProject,
		Triggers:      []string{"science project", "science fair"},
		EntryTemplate: "A science project is a great way to turn curiosity into something you can show off, {name}. Tell me a bit more: what area of science excites you, and do you have any equipment or lab access?",
		Steps: []WorkflowStep{
			{
				Stage:  StageClarifying,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:        models.StageNone,
						Ack:       "Got it. Let me think through a solid project idea for you...",
						Generate:  true,
						GenPrompt: "You are an advisor proposing a science fair project for a high school student. Based on their interests and constraints, propose one specific, feasible project with a hypothesis, method sketch, and what success looks like.",
					},
				},
				Reprompt: "Tell me which area of science interests you and what resources you have access to.",
			},
		},
	}
}

func competitionWorkflow() WorkflowDef {
	return WorkflowDef{
		Type:          models.WorkflowCompetition,
		Triggers:      []string{"competition", "compete"},
		EntryTemplate: "Competitions can really push you, {name}. What subject or skill would you want to compete in?",
		Steps: []WorkflowStep{
			{
				Stage:  StageClarifying,
				Expect: ExpectAny,
				Transitions: map[string]Transition{
					"any": {
						To:        models.StageNone,
						Generate:  true,
						GenPrompt: "You are an advisor recommending competitions to a high school student. Given the subject they named, recommend two or three well-known competitions at their level, with a one-line prep tip for each.",
					},
				},
				Reprompt: "Which subject would you want to compete in? Math, coding, writing, science, business, anything goes.",
			},
		},
	}
}
