// Package ui implements the interactive admin console using bubbletea's Elm architecture.
//
// The console starts on a hydrating screen while the persisted session is restored. It never
// shows the login form before hydration completes, so a returning user is not bounced to login.
// Once hydrated, anonymous users get the login form and authenticated users the main view with
// four tabs:
//  1. [ChannelsTab] : Browse channels, trigger a sync for the selected one, delete with confirmation
//  2. [MappingsTab] : Filter provider mappings locally by free text and provider
//  3. [ProgramsTab] : Page through the server-side program search by channel and date
//  4. [SyncLogTab] : Review the client-local sync history
//
// Backend calls run as [tea.Cmd]s and report back through typed messages. Failures surface as a
// toast line and never end the session.
package ui
