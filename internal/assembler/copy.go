package assembler

// Static prompt copy. Fallback blocks keep the same shape as the retrieved
// sections they replace so the agent never sees an empty section.

const monorepoDescriptor = "pnpm + Turborepo monorepo"

const monorepoStructure = `## Monorepo Structure
The workspace is a single monorepo:
- ` + "`apps/`" + ` contains one deployable application per directory (for example ` + "`apps/rac`" + `, ` + "`apps/partners`" + `, ` + "`apps/web`" + `).
- ` + "`packages/`" + ` contains shared libraries consumed by the apps (UI kit, API clients, configuration presets).
- Shared tooling (lint, TypeScript, test presets) lives at the workspace root and is inherited by every app.
- Code shared by two or more apps belongs in ` + "`packages/`" + `, never copied between apps.`

const fallbackTechnology = `## Technical Context
No technology documentation was found for this application. Assume the workspace defaults:
- TypeScript in strict mode.
- React with function components and hooks.
- Vite for bundling and local development.
- Jest with React Testing Library for tests.
- pnpm for package management.`

const fallbackStructure = `## Project Structure
No folder-structure documentation was found for this application. Follow the standard application layout:
- ` + "`src/modules/<feature>/`" + ` groups everything a feature owns (components, hooks, services, tests).
- ` + "`src/shared/`" + ` holds cross-feature components and utilities.
- ` + "`src/routes/`" + ` defines routing and page entry points.
- Tests sit next to the code they cover as ` + "`*.test.ts(x)`" + `.`

const fallbackConventions = `## Conventions
No convention documentation was found for this application. Apply the workspace conventions:
- Components use PascalCase; hooks start with ` + "`use`" + `; other files use kebab-case.
- Import order: external packages, workspace packages, then relative imports.
- Prefer named exports over default exports.
- Styling uses the shared design tokens; no hard-coded colors or spacing.`

const developmentPrinciples = `## Development Principles
- **Code quality**: small focused functions, explicit types, no dead code, no ` + "`any`" + `.
- **Structure**: keep feature code inside its module; extract to ` + "`packages/`" + ` only when shared.
- **Testing**: every behavior change ships with unit tests; cover edge cases and error paths.
- **Styling**: mobile-first responsive layouts using the design system components.
- **Git workflow**: conventional commit messages, one logical change per commit, branch per task.`

const implementationInstructions = `## Implementation Instructions
1. Read the mandatory rules above before writing any code.
2. Follow the project structure and conventions described in the system context.
3. Reuse existing components, hooks and services before creating new ones.
4. Write or update unit tests for every change.
5. Make sure the UI is responsive on mobile, tablet and desktop.
6. Summarize the files you changed and why when you finish.`

const planInstructions = `## Generation Instructions
Produce three documents, in this order, each following its template above:
1. **PRD**: problem, goals, non-goals, user stories and acceptance criteria.
2. **Tasks**: an ordered list of implementation tasks, each small enough for one pull request.
3. **Subtasks**: for every task, the concrete subtasks with the files to touch and the tests to write.

Ground every decision in the retrieved architecture, conventions and examples. When a template is missing, use a clear markdown structure of your own for that document.`
