package main

import (
	"fmt"
	"strings"

	"github.com/lexcodex/autoloop/agents"
	"github.com/lexcodex/autoloop/agents/loop"
	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/console"
)

// setupPersona offers the saved persona at path and otherwise asks for a new
// one, which is saved back to path.
func setupPersona(con loop.Console, path string) (agents.Persona, error) {
	saved, err := agents.LoadPersona(path)
	if err != nil {
		return agents.Persona{}, err
	}
	if saved.Name != "" {
		con.Typewriter("Welcome back! ", console.Green, fmt.Sprintf("Would you like me to return to being %s?", saved.Name))
		con.Println(fmt.Sprintf("Continue with the last settings?\nName:  %s\nRole:  %s\nGoals: %s",
			saved.Name, saved.Role, framework.Stringify(saved.Goals)))
		answer, err := con.ReadLine("Continue (y/n): ")
		if err != nil {
			return agents.Persona{}, err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "n" {
			return saved.WithDefaults(), nil
		}
	}
	p, err := promptPersona(con)
	if err != nil {
		return agents.Persona{}, err
	}
	if err := p.Save(path); err != nil {
		return agents.Persona{}, fmt.Errorf("save persona: %w", err)
	}
	return p, nil
}

func promptPersona(con loop.Console) (agents.Persona, error) {
	con.Typewriter("Welcome to Autoloop! ", console.Green, "Enter the name of your AI and its role below. Entering nothing will load defaults.")

	con.Typewriter("Name your AI: ", console.Green, fmt.Sprintf("For example, '%s'", agents.DefaultName))
	name, err := con.ReadLine("AI Name: ")
	if err != nil {
		return agents.Persona{}, err
	}
	if name = strings.TrimSpace(name); name == "" {
		name = agents.DefaultName
	}
	con.Typewriter(name+" here!", console.LightBlue, "I am at your service.")

	con.Typewriter("Describe your AI's role: ", console.Green, fmt.Sprintf("For example, '%s'", agents.DefaultRole))
	role, err := con.ReadLine(name + " is: ")
	if err != nil {
		return agents.Persona{}, err
	}

	con.Typewriter(fmt.Sprintf("Enter up to %d goals for your AI: ", agents.MaxGoals), console.Green,
		"For example: \n"+strings.Join(agents.DefaultGoals(), ", "))
	con.Println("Enter nothing to load defaults, enter nothing when finished.")
	var goals []string
	for i := 0; i < agents.MaxGoals; i++ {
		goal, err := con.ReadLine(fmt.Sprintf("Goal %d: ", i+1))
		if err != nil {
			return agents.Persona{}, err
		}
		if goal = strings.TrimSpace(goal); goal == "" {
			break
		}
		goals = append(goals, goal)
	}
	return agents.Persona{Name: name, Role: strings.TrimSpace(role), Goals: goals}.WithDefaults(), nil
}
